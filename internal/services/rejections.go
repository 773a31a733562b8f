package services

import (
	"errors"

	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// reject records a refused write and hands the error back unchanged
func reject(log *zap.Logger, entity string, err error) error {
	metrics.RecordRejection(entity, err)
	if validation.IsNotFound(err) || validation.IsConflict(err) {
		log.Info("write rejected", zap.String("entity", entity), zap.Error(err))
	} else {
		log.Debug("write rejected", zap.String("entity", entity), zap.Error(err))
	}
	return err
}

// isCallerError reports whether err is one the caller can correct, as opposed to
// an infrastructure failure
func isCallerError(err error) bool {
	var (
		ruleErr      *validation.ValidationError
		forbiddenErr *validation.ForbiddenError
	)
	return errors.As(err, &ruleErr) || errors.As(err, &forbiddenErr) ||
		validation.IsNotFound(err) || validation.IsConflict(err)
}
