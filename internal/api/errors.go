package api

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a failed backend call. Status is 0 when no response arrived.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   []byte
	Err    error // Transport or read failure
}

func (e *HTTPError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// StatusCode implements domain.StatusError
func (e *HTTPError) StatusCode() int { return e.Status }

// ResponseBody implements domain.StatusError
func (e *HTTPError) ResponseBody() []byte { return e.Body }

// IsUnauthorized reports whether err is a 401 response
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusUnauthorized
}
