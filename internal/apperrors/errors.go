package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is an error that knows which status it should be answered with.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Wrap attaches an underlying cause that is logged but never sent to the client.
func (e *HTTPError) Wrap(err error) *HTTPError {
	e.Err = err
	return e
}

// Response is the JSON body of every error answer.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *HTTPError) Response() Response {
	return Response{Status: e.Status, Message: e.Message}
}

func New(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

func BadRequest(message string) *HTTPError {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *HTTPError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, message)
}

// NotFound builds "<resource> not found".
func NotFound(resource string) *HTTPError {
	return New(http.StatusNotFound, resource+" not found")
}

func Unavailable(message string) *HTTPError {
	return New(http.StatusServiceUnavailable, message)
}

// As returns the HTTPError in err's chain, if any.
func As(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsNotFound reports whether err carries a 404.
func IsNotFound(err error) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Status == http.StatusNotFound
}
