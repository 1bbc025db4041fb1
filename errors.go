package aquilify

import (
	"errors"
	"net/http"
)

// Error is an error carrying an HTTP status code. Handlers can assign one
// to ctx.Error (or return one from helpers that do) to have the router
// produce a response with the matching status and run any error handler
// registered for it.
type Error struct {
	// StatusCode is the HTTP status the response will carry.
	StatusCode int

	// Message is the response body text. If empty, the standard status
	// text for StatusCode is used.
	Message string

	// Err is an optional underlying cause, reachable via errors.Unwrap.
	Err error
}

// NewError creates an Error with the given status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// WrapError creates an Error with the given status code wrapping an
// underlying cause.
func WrapError(statusCode int, err error) *Error {
	return &Error{StatusCode: statusCode, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errors for the common HTTP failure statuses. Assign one to ctx.Error to
// fail a request with that status:
//
//	router.Get("/users/:id", func(ctx *aquilify.Context) {
//	    user, ok := store.Lookup(ctx.Param("id"))
//	    if !ok {
//	        ctx.Error = aquilify.ErrNotFound
//	        return
//	    }
//	    ctx.JSON(user)
//	})
var (
	ErrBadRequest           = &Error{StatusCode: http.StatusBadRequest}
	ErrUnauthorized         = &Error{StatusCode: http.StatusUnauthorized}
	ErrForbidden            = &Error{StatusCode: http.StatusForbidden}
	ErrNotFound             = &Error{StatusCode: http.StatusNotFound}
	ErrMethodNotAllowed     = &Error{StatusCode: http.StatusMethodNotAllowed}
	ErrNotAcceptable        = &Error{StatusCode: http.StatusNotAcceptable}
	ErrRequestTimeout       = &Error{StatusCode: http.StatusRequestTimeout}
	ErrConflict             = &Error{StatusCode: http.StatusConflict}
	ErrGone                 = &Error{StatusCode: http.StatusGone}
	ErrLengthRequired       = &Error{StatusCode: http.StatusLengthRequired}
	ErrPreconditionFailed   = &Error{StatusCode: http.StatusPreconditionFailed}
	ErrPayloadTooLarge      = &Error{StatusCode: http.StatusRequestEntityTooLarge}
	ErrUnsupportedMediaType = &Error{StatusCode: http.StatusUnsupportedMediaType}
	ErrUnprocessableEntity  = &Error{StatusCode: http.StatusUnprocessableEntity}
	ErrTooManyRequests      = &Error{StatusCode: http.StatusTooManyRequests}
	ErrInternal             = &Error{StatusCode: http.StatusInternalServerError}
	ErrNotImplemented       = &Error{StatusCode: http.StatusNotImplemented}
	ErrBadGateway           = &Error{StatusCode: http.StatusBadGateway}
	ErrServiceUnavailable   = &Error{StatusCode: http.StatusServiceUnavailable}
	ErrGatewayTimeout       = &Error{StatusCode: http.StatusGatewayTimeout}
)

// errorStatus extracts the HTTP status for an error. Errors that are not
// (or do not wrap) an *Error map to 500.
func errorStatus(err error) int {
	var httpErr *Error
	if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
		return httpErr.StatusCode
	}
	return http.StatusInternalServerError
}
