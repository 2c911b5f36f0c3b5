package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// Shape selects the JSON envelope an endpoint uses for failures.
type Shape int

const (
	// ShapeError renders {"error": reason}.
	ShapeError Shape = iota
	// ShapeFailure renders {"success": false, "error": reason}.
	ShapeFailure
)

const msgInternal = "Internal server error"

// RequestError is a handler failure with the status and reason to show the
// caller. Err is logged but never rendered.
type RequestError struct {
	Reason     string
	StatusCode int
	Shape      Shape
	Err        error
}

func (e *RequestError) Error() string { return e.Reason }

func (e *RequestError) Unwrap() error { return e.Err }

func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{StatusCode: statusCode, Reason: reason, Err: err}
}

// NewFailure is NewRequestError with the {success:false} envelope.
func NewFailure(statusCode int, reason string, err error) *RequestError {
	return &RequestError{StatusCode: statusCode, Reason: reason, Shape: ShapeFailure, Err: err}
}

func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

func (e *RequestError) body() gin.H {
	if e.Shape == ShapeFailure {
		return gin.H{"success": false, "error": e.Reason}
	}
	return gin.H{"error": e.Reason}
}

// RespondWithError logs err and writes it. Errors that are not RequestErrors
// become a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = NewRequestError(http.StatusInternalServerError, msgInternal, err)
	}
	log := logger.FromContext(c.Request.Context())
	fields := []any{"status", reqErr.StatusCode, "reason", reqErr.Reason, "path", c.Request.URL.Path}
	if reqErr.Err != nil {
		fields = append(fields, "error", core.RedactError(reqErr.Err))
	}
	if reqErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request failed", fields...)
	} else {
		log.Warn("Request failed", fields...)
	}
	c.AbortWithStatusJSON(reqErr.StatusCode, reqErr.body())
}

// ErrorHandler renders the last error attached with c.Error when the handler
// did not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RespondWithError(c, c.Errors.Last().Err)
	}
}
