// Package transport opens cancellable byte streams for chat sessions and log
// subscriptions.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Request describes a stream to open.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Get returns a GET Request for url.
func Get(url string) *Request {
	return &Request{
		Method: http.MethodGet,
		URL:    url,
	}
}

// Transport opens a byte stream for a Request. Cancelling ctx aborts the
// open and any read outstanding on the returned body. Callers must Close the
// body on every path.
type Transport interface {
	Open(ctx context.Context, req *Request) (io.ReadCloser, error)
}

// Func adapts a function to a Transport.
type Func func(ctx context.Context, req *Request) (io.ReadCloser, error)

func (f Func) Open(ctx context.Context, req *Request) (io.ReadCloser, error) {
	return f(ctx, req)
}

// Error is a network or HTTP failure while opening or reading a stream.
type Error struct {
	// Op is the failed operation: "open" or "read".
	Op string

	URL string

	// Status is the HTTP status code for non-2xx responses, zero otherwise.
	Status int

	// Body holds the start of the response body for non-2xx responses.
	Body string

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.Status)
	case e.URL != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError wraps err in an *Error for op unless it already is one.
func AsError(op, url string, err error) *Error {
	var terr *Error
	if errors.As(err, &terr) {
		return terr
	}
	return &Error{Op: op, URL: url, Err: err}
}

// IsError reports whether err is or wraps an *Error.
func IsError(err error) bool {
	var terr *Error
	return errors.As(err, &terr)
}
