package models

import "fmt"

// GatewayErrorKind classifies a failed backend call.
type GatewayErrorKind int

const (
	// GatewayConnectivity means the backend could not be reached at all.
	GatewayConnectivity GatewayErrorKind = iota
	// GatewayRateLimited means the backend answered HTTP 429.
	GatewayRateLimited
	// GatewayRejected covers every other non-2xx answer.
	GatewayRejected
)

// GatewayError is the single error shape all backend failures are
// normalized to. Message is display-ready: the backend's detail string
// when one was provided, a generic fallback otherwise.
type GatewayError struct {
	Kind    GatewayErrorKind
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// ValidationError represents an error when data validation fails
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError represents an error when storage operations fail
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
