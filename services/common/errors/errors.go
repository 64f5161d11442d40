package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so wrapped copies of the sentinels below
// compare equal with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Wrap returns a copy of e carrying err. The package-level sentinels are
// never mutated.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequest, NotFound and Internal build one-off errors with a custom message.
func BadRequest(message string) *Error { return New(http.StatusBadRequest, message, nil) }
func NotFound(message string) *Error   { return New(http.StatusNotFound, message, nil) }
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Not Authorized Login Again", nil)
	ErrForbidden          = New(http.StatusForbidden, "Admin access required", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
)

var (
	ErrDatabaseQuery = New(http.StatusInternalServerError, "Database query error", nil)
	ErrInvalidInput  = New(http.StatusBadRequest, "Invalid input", nil)
	ErrInvalidToken  = New(http.StatusUnauthorized, "Invalid token", nil)
)

var (
	ErrOrderNotFound = New(http.StatusNotFound, "Order not found", nil)
	ErrInvalidOrder  = New(http.StatusBadRequest, "Invalid order", nil)
	ErrPaymentFailed = New(http.StatusBadGateway, "Payment provider error", nil)
)

// As converts any error into an *Error, defaulting to ErrInternalServer.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.Wrap(err)
}

// Fail writes the storefront failure envelope {success:false, message}.
func Fail(c *gin.Context, err error) {
	appErr := As(err)
	c.AbortWithStatusJSON(appErr.Code, gin.H{"success": false, "message": appErr.Message})
}
