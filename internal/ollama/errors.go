package ollama

import (
	"errors"
	"fmt"
)

var errEmptyResponse = errors.New("empty response")

// UnreachableError indicates the Ollama server could not be contacted at all.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("ollama unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// StatusError indicates the server answered with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama returned HTTP %d", e.Code)
}

// MalformedError indicates the server answered 2xx but the body was not
// usable (undecodable JSON or no response text).
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("ollama response malformed: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
