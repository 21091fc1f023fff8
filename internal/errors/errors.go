// Package errors writes the JSON error envelope shared by every endpoint.
package errors

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/estimo/api/internal/logger"
)

// Error codes carried in ErrorDetail.Code.
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrCatalogUnavailable = "CATALOG_UNAVAILABLE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Respond aborts the request with status and the error envelope. The request
// ID, when the request has one, is echoed so clients can quote it.
func Respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logger.RequestIDFromContext(c.Request.Context()),
		},
	})
}

// warn logs a rejected request on the request-scoped logger, if any.
func warn(c *gin.Context, msg string, fields map[string]interface{}) {
	log := logger.FromContext(c.Request.Context())
	if log == nil {
		return
	}
	fields["path"] = c.Request.URL.Path
	log.Warn(msg, fields)
}

// NotFound responds 404, e.g. for an unknown property ID or neighborhood.
func NotFound(c *gin.Context, message string) {
	warn(c, "Resource not found", map[string]interface{}{"message": message})
	Respond(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// BadRequest responds 400 with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	fields := map[string]interface{}{"message": message}
	if details != nil {
		fields["details"] = details
	}
	warn(c, "Bad request", fields)
	Respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// ServiceUnavailable responds 503 while no catalog snapshot is loaded.
func ServiceUnavailable(c *gin.Context, message string) {
	warn(c, "Catalog unavailable", map[string]interface{}{"message": message})
	Respond(c, http.StatusServiceUnavailable, ErrCatalogUnavailable, message, nil)
}

// InternalServerError responds 500. err is logged but never sent to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	if log := logger.FromContext(c.Request.Context()); log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"message": message,
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
		})
	}
	Respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// BindingError responds to a failed ShouldBind* call. Validation failures get
// per-field details; malformed JSON or mistyped parameters are a plain bad
// request.
func BindingError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		ValidationError(c, validationErrors)
		return
	}

	BadRequest(c, "Invalid request", map[string]interface{}{
		"error": err.Error(),
	})
}

// ValidationError responds 400 with one message per failing field, keyed by
// struct field name.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = describeFieldError(fe)
	}

	warn(c, "Validation error", map[string]interface{}{"fields": details})
	Respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}

// describeFieldError phrases the binding tags request DTOs use.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if unit := lengthUnit(fe.Kind()); unit != "" {
			return "Must have at least " + fe.Param() + " " + unit
		}
		return "Must be at least " + fe.Param()
	case "max":
		if unit := lengthUnit(fe.Kind()); unit != "" {
			return "Must have at most " + fe.Param() + " " + unit
		}
		return "Must be at most " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "unique":
		return "Values must be unique"
	default:
		return "Failed the " + fe.Tag() + " check"
	}
}

// lengthUnit names what min/max count for kinds where they bound a length,
// and is empty for numbers.
func lengthUnit(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	}
	return ""
}
