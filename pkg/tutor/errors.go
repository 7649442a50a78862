package tutor

import (
	"errors"
	"fmt"
)

// ErrServiceResponseMissing is returned when a run stream finishes without
// a completed assistant message.
var ErrServiceResponseMissing = errors.New("no hay respuesta del asistente")

// UpstreamServiceError reports a failure raised by the assistant service:
// rejected request, auth or quota failure, transport error, or a run that
// ended in failure.
type UpstreamServiceError struct {
	Message string
	Err     error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("upstream service error: %s", e.Message)
}

func (e *UpstreamServiceError) Unwrap() error {
	return e.Err
}

// InternalAdapterError reports any other failure while handling an
// interaction, such as an unexpected payload shape.
type InternalAdapterError struct {
	Message string
	Err     error
}

func (e *InternalAdapterError) Error() string {
	return fmt.Sprintf("internal adapter error: %s", e.Message)
}

func (e *InternalAdapterError) Unwrap() error {
	return e.Err
}
