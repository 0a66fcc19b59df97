package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Callers classify with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrRemoteData       = errors.New("remote data error")
	ErrNetwork          = errors.New("network error")
	ErrTimeout          = errors.New("request timeout")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrPrediction       = errors.New("prediction error")
)

// RemoteDataError reports a provider-side failure: a non-ok status or a
// payload that does not have the expected shape.
type RemoteDataError struct {
	Message string
}

func (e *RemoteDataError) Error() string {
	return fmt.Sprintf("remote data error: %s", e.Message)
}

func (e *RemoteDataError) Unwrap() error { return ErrRemoteData }
