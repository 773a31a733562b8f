package metrics

import (
	"errors"

	"github.com/pokepocketdata/ppdd/internal/validation"
)

// RecordRejection counts a rejected write for entity, labelled by the kind of error.
// Errors that are not caller-correctable are not counted.
func RecordRejection(entity string, err error) {
	if kind := rejectionKind(err); kind != "" {
		ValidationFailuresTotal.WithLabelValues(entity, kind).Inc()
	}
}

func rejectionKind(err error) string {
	var (
		schemaErr    *validation.SchemaError
		ruleErr      *validation.ValidationError
		conflictErr  *validation.ConflictError
		notFoundErr  *validation.NotFoundError
		forbiddenErr *validation.ForbiddenError
	)
	switch {
	case errors.As(err, &schemaErr), errors.Is(err, validation.ErrMalformedBody):
		return "schema"
	case errors.As(err, &ruleErr):
		return "rule"
	case errors.As(err, &conflictErr):
		return "conflict"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &forbiddenErr):
		return "forbidden"
	}
	return ""
}
