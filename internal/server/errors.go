package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/tailorbook/internal/auth/domain"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// errorResponse keeps a top-level message so clients that only read
// "message" still get a readable failure.
type errorResponse struct {
	Message string       `json:"message"`
	Error   errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Message: payload.Message, Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// Storage failures win over whatever they wrap: a corrupt file on disk is
	// not the caller's fault.
	if recorddomain.IsStorageError(err) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if rErr, ok := recorddomain.AsValidationError(err); ok {
		fields := make([]ValidationError, 0, len(rErr.Fields))
		for _, f := range rErr.Fields {
			fields = append(fields, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: validationErrorMessage(code),
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "request cancelled",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, recorddomain.ErrMalformedDocument),
		errors.Is(err, recorddomain.ErrInvalidIdentity),
		errors.Is(err, recorddomain.ErrIdentityMismatch):
		return true
	default:
		return false
	}
}

// A key that does not follow <kind>_<identity>.json cannot name a record.
func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, recorddomain.ErrNotFound),
		errors.Is(err, recorddomain.ErrInvalidKey):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, recorddomain.ErrMalformedDocument):
		return "invalid_document"
	case errors.Is(err, recorddomain.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, recorddomain.ErrIdentityMismatch):
		return "identity_mismatch"
	default:
		return "invalid_request"
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_document":
		return "body"
	case "invalid_identity", "identity_mismatch":
		return "identity"
	default:
		return "request"
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_document":
		return "request body must be a JSON object"
	case "invalid_identity":
		return "identity cannot be used as a record key"
	case "identity_mismatch":
		return "identity in body does not match the record key"
	default:
		return "invalid request"
	}
}

// classifyErrorForLog feeds error_type and error_code into the request log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case recorddomain.IsStorageError(err):
		return "storage_error", "io_failure"
	case status >= http.StatusInternalServerError:
		return payload.Type, "internal_error"
	case len(payload.Errors) > 0:
		return payload.Type, payload.Errors[0].Code
	default:
		return payload.Type, payload.Type
	}
}
