package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// UpstreamError is returned for every failure reported by the assistant
// service or met on the way to it (transport, non-2xx status, error events
// in a run stream).
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// wrapError converts an error returned by the go-openai client into an
// UpstreamError, keeping the service's own message when there is one.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	upErr := &UpstreamError{Op: op, Message: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		upErr.StatusCode = apiErr.HTTPStatusCode
		if apiErr.Message != "" {
			upErr.Message = apiErr.Message
		}
	case errors.As(err, &reqErr):
		upErr.StatusCode = reqErr.HTTPStatusCode
	}

	return upErr
}

// mapHTTPError builds an UpstreamError from a non-2xx response. The body is
// decoded as the service's standard error envelope when possible.
func mapHTTPError(op string, resp *http.Response) *UpstreamError {
	upErr := &UpstreamError{Op: op, StatusCode: resp.StatusCode}

	if apiErr := decodeErrorBody(resp.Body); apiErr != nil {
		apiErr.HTTPStatusCode = resp.StatusCode
		upErr.Message = apiErr.Message
		upErr.Err = apiErr
	}

	if upErr.Message == "" {
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			upErr.Message = "assistant service authentication failed"
		case resp.StatusCode == http.StatusNotFound:
			upErr.Message = "assistant service resource not found"
		case resp.StatusCode == http.StatusTooManyRequests:
			upErr.Message = "assistant service rate limit exceeded"
		default:
			upErr.Message = fmt.Sprintf("unexpected assistant service error (HTTP %d)", resp.StatusCode)
		}
	}

	return upErr
}

func decodeErrorBody(body io.Reader) *openai.APIError {
	if body == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return nil
	}

	var envelope openai.ErrorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error
	}

	return nil
}
