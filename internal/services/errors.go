package services

import (
	"errors"
	"fmt"
)

var (
	ErrEncoding       = errors.New("token does not fit callback data")
	ErrMalformedToken = errors.New("malformed navigation token")
	ErrNetwork        = errors.New("content source unavailable")
	ErrEmptyResult    = errors.New("no results")
	ErrSessionMiss    = errors.New("walkthrough session not found")
	ErrOwnership      = errors.New("favorite belongs to another chat")
)

// HTTPStatusError captures non-2xx upstream responses. It unwraps to ErrNetwork.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *HTTPStatusError) Unwrap() error {
	return ErrNetwork
}
