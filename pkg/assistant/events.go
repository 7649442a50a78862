package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// EventType is the server-sent event name of a run stream event.
type EventType string

const (
	EventThreadCreated     EventType = "thread.created"
	EventRunCreated        EventType = "thread.run.created"
	EventRunQueued         EventType = "thread.run.queued"
	EventRunInProgress     EventType = "thread.run.in_progress"
	EventRunRequiresAction EventType = "thread.run.requires_action"
	EventRunCompleted      EventType = "thread.run.completed"
	EventRunIncomplete     EventType = "thread.run.incomplete"
	EventRunFailed         EventType = "thread.run.failed"
	EventRunCancelled      EventType = "thread.run.cancelled"
	EventRunExpired        EventType = "thread.run.expired"
	EventMessageCreated    EventType = "thread.message.created"
	EventMessageInProgress EventType = "thread.message.in_progress"
	EventMessageDelta      EventType = "thread.message.delta"
	EventMessageCompleted  EventType = "thread.message.completed"
	EventMessageIncomplete EventType = "thread.message.incomplete"
	EventError             EventType = "error"
	EventDone              EventType = "done"

	defaultEventType EventType = "message"
)

const (
	eventRunStepPrefix = "thread.run.step."
	eventRunPrefix     = "thread.run."
	eventMessagePrefix = "thread.message."
)

// Event is one decoded run stream event. Which payload field is set depends
// on Type: Run for thread.run.*, Message for thread.message.* (except
// deltas), Delta for thread.message.delta and Err for error. Data always
// holds the raw payload.
type Event struct {
	Type    EventType
	Run     *openai.Run
	Message *openai.Message
	Delta   string
	Err     *openai.APIError
	Data    json.RawMessage
}

// IsTerminalRunFailure reports whether the event ends the run without an
// answer being produced by the service.
func (e Event) IsTerminalRunFailure() bool {
	switch e.Type {
	case EventRunFailed, EventRunCancelled, EventRunExpired:
		return true
	}
	return false
}

type messageDelta struct {
	ID    string `json:"id"`
	Delta struct {
		Content []struct {
			Index int    `json:"index"`
			Type  string `json:"type"`
			Text  *struct {
				Value string `json:"value"`
			} `json:"text,omitempty"`
		} `json:"content"`
	} `json:"delta"`
}

func decodeEvent(name string, data []byte) (Event, error) {
	eventType := EventType(name)
	if name == "" {
		eventType = defaultEventType
	}
	ev := Event{Type: eventType, Data: json.RawMessage(data)}

	switch {
	case eventType == EventDone:
		return ev, nil

	case eventType == EventError:
		ev.Err = decodeStreamError(data)
		return ev, nil

	case strings.HasPrefix(name, eventRunStepPrefix):
		// run steps carry tool progress only
		return ev, nil

	case strings.HasPrefix(name, eventRunPrefix):
		var run openai.Run
		if err := json.Unmarshal(data, &run); err != nil {
			return Event{}, fmt.Errorf("decode %s event: %w", name, err)
		}
		ev.Run = &run

	case eventType == EventMessageDelta:
		var delta messageDelta
		if err := json.Unmarshal(data, &delta); err != nil {
			return Event{}, fmt.Errorf("decode %s event: %w", name, err)
		}
		var sb strings.Builder
		for _, part := range delta.Delta.Content {
			if part.Text != nil {
				sb.WriteString(part.Text.Value)
			}
		}
		ev.Delta = sb.String()

	case strings.HasPrefix(name, eventMessagePrefix):
		var msg openai.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return Event{}, fmt.Errorf("decode %s event: %w", name, err)
		}
		ev.Message = &msg
	}

	return ev, nil
}

// decodeStreamError accepts both a bare error object and the
// {"error": {...}} envelope.
func decodeStreamError(data []byte) *openai.APIError {
	var envelope openai.ErrorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error
	}

	var apiErr openai.APIError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return &apiErr
	}

	return &openai.APIError{Message: strings.TrimSpace(string(data))}
}
