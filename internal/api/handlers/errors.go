package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/auth"
	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/middleware"
	"github.com/pokepocketdata/ppdd/internal/services"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// maxJSONBodyBytes bounds every JSON request body
const maxJSONBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// respondError maps a service or binding error onto a status code and the
// common error body. Anything unrecognised is logged and reported as a 500
// without its internal detail.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		schemaErr    *validation.SchemaError
		ruleErr      *validation.ValidationError
		notFoundErr  *validation.NotFoundError
		conflictErr  *validation.ConflictError
		forbiddenErr *validation.ForbiddenError
		maxBytesErr  *http.MaxBytesError
	)

	switch {
	case errors.Is(err, validation.ErrMalformedBody):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "MALFORMED_BODY"})
	case errors.As(err, &maxBytesErr), errors.Is(err, services.ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large", Code: "BODY_TOO_LARGE"})
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "request does not match the schema", Code: "SCHEMA_ERROR", Details: schemaErr.Fields})
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid " + ruleErr.Entity, Code: "VALIDATION_ERROR", Details: ruleErr.Failures})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error(), Code: "NOT_FOUND"})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorResponse{Error: conflictErr.Error(), Code: "CONFLICT"})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: forbiddenErr.Error(), Code: "FORBIDDEN"})
	case errors.Is(err, services.ErrEmptyImage), errors.Is(err, services.ErrUnsupportedImage):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "INVALID_IMAGE"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Could not validate credentials", Code: "AUTH_INVALID_TOKEN"})
	case errors.Is(err, middleware.ErrNoUser):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: "AUTH_REQUIRED"})
	case errors.Is(err, services.ErrInactiveUser):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "USER_INACTIVE"})
	case errors.Is(err, auth.ErrProviderUnavailable):
		log.Error("identity provider failure", zap.String("request_id", middleware.RequestID(c)), zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "identity provider unavailable", Code: "IDP_UNAVAILABLE"})
	default:
		log.Error("request failed", zap.String("request_id", middleware.RequestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
	}
	_ = c.Error(err)
}

// AbortWithError writes the error reply respondError would and stops the chain.
// Middleware uses it for failures that are not its own to classify.
func AbortWithError(log *zap.Logger) func(*gin.Context, error) {
	return func(c *gin.Context, err error) {
		respondError(c, log, err)
		c.Abort()
	}
}

// bindJSON decodes and schema-checks the request body into dst. On failure the
// error reply has been written and false is returned.
func bindJSON(c *gin.Context, log *zap.Logger, entity string, dst any) bool {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes)
	if err := validation.Bind(body, dst); err != nil {
		metrics.RecordRejection(entity, err)
		respondError(c, log, err)
		return false
	}
	return true
}

// currentUser returns the authenticated caller or writes a 401
func currentUser(c *gin.Context) (string, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: "AUTH_REQUIRED"})
		return "", false
	}
	return user.ID, true
}
