package inference

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrSchemaMismatch is returned when the model's output cannot be decoded
	// into the expected shape.
	ErrSchemaMismatch = errors.New("response does not match schema")

	// ErrEmptyResponse is returned when the model answers without any text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of model call failures.
type ErrorClass string

const (
	// ErrorClassCredential is a rejected, invalid or expired credential.
	ErrorClassCredential ErrorClass = "credential"

	// ErrorClassRateLimit is a 429 or a credential still cooling down.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassClient represents other 4xx errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Error is a classified failure from the model endpoint.
type Error struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("inference %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of the first *Error in err's chain, or "" if
// there is none.
func ClassOf(err error) ErrorClass {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.ErrorClass
	}
	return ""
}

// IsCredentialFailure reports whether err should move the caller on to the
// next credential: the key was rejected or it is rate limited.
func IsCredentialFailure(err error) bool {
	switch ClassOf(err) {
	case ErrorClassCredential, ErrorClassRateLimit:
		return true
	default:
		return false
	}
}

// shouldRetry determines if an error should be retried with the same
// credential. Credential and rate-limit failures are rotated instead.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
