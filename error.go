package jsonrpc11

import (
	"fmt"
	"strconv"
)

// ServiceError is an error reported by the remote service, either explicitly
// through the protocol's error envelope or implicitly through a response body
// the client could not make sense of. Callers are expected to match on Name
// and Code rather than on a concrete type per failure class; the server owns
// the set of names.
//
// Message and Data are always non-nil strings, regardless of what the server
// sent.
type ServiceError struct {
	// Name identifies the class of error, e.g. "JSONRPCError". Responses the
	// client could not interpret are reported with the name "Unknown" and
	// code 0.
	Name string

	// Code is the numeric error code reported by the server.
	Code int

	// Message is the human readable error message. Empty if the server sent
	// none.
	Message string

	// Data carries additional error detail, typically a server-side stack
	// trace. Servers send it under either a "data" or an "error" key; the
	// first non-empty of the two wins. Empty if the server sent neither.
	Data string
}

// Error implements error.
func (e *ServiceError) Error() string {
	return e.Name + ": " + strconv.Itoa(e.Code) + ". " + e.Message + "\n" + e.Data
}

// HTTPError is returned when the server responds with an HTTP failure status
// other than 500. Status 500 is reserved by the protocol for the error
// envelope and never produces an HTTPError.
type HTTPError struct {
	// StatusCode is the numeric HTTP status, e.g. 404.
	StatusCode int

	// Status is the full status line, e.g. "404 Not Found".
	Status string

	// Body is the raw response body.
	Body []byte
}

// Error implements error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned HTTP error status %s", e.Status)
}

// ArgumentError is returned by New for invalid construction parameters. It is
// always produced before any network activity.
type ArgumentError struct {
	Reason string
}

// Error implements error.
func (e *ArgumentError) Error() string {
	return e.Reason
}
