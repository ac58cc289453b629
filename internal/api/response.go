package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/documents"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/rgehrsitz/quotego/internal/wizard"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

// APIError describes a failure. Fields carries per-field messages for
// validation and calculation failures.
type APIError struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  domain.FieldErrors `json:"fields,omitempty"`
}

var errSessionNotFound = errors.New("quote session not found")

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: APIError{Code: code, Message: message}})
}

func badRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", err.Error())
}

// fail maps engine errors onto HTTP responses
func (s *Server) fail(c *gin.Context, err error, fields domain.FieldErrors) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, errSessionNotFound), errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, wizard.ErrValidationFailed):
		status, code = http.StatusUnprocessableEntity, "VALIDATION_FAILED"
	case errors.Is(err, session.ErrClosed):
		status, code = http.StatusGone, "SESSION_CLOSED"
	case errors.Is(err, wizard.ErrAtFirstStep),
		errors.Is(err, wizard.ErrJumpNotAllowed),
		errors.Is(err, wizard.ErrStepNotApplicable),
		errors.Is(err, wizard.ErrFlowComplete):
		status, code = http.StatusConflict, "NAVIGATION_REJECTED"
	case errors.Is(err, session.ErrStale):
		status, code = http.StatusConflict, "STALE_CALCULATION"
	case errors.Is(err, session.ErrNotReady), errors.Is(err, session.ErrSubmitInProgress):
		status, code = http.StatusConflict, "NOT_READY"
	case errors.Is(err, session.ErrSubmitFailed):
		status, code = http.StatusBadGateway, "SUBMIT_FAILED"
	case errors.Is(err, documents.ErrNoSidecar):
		status, code = http.StatusUnprocessableEntity, "EXTRACTION_FAILED"
	default:
		if cerr, ok := calculation.AsCalculationError(err); ok {
			status, code = http.StatusUnprocessableEntity, "CALCULATION_FAILED"
			if fields == nil && cerr.Field != "" {
				fields = domain.FieldErrors{cerr.Field: cerr.Error()}
			}
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: APIError{Code: code, Message: err.Error(), Fields: fields}})
}
