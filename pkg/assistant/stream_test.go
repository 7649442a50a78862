package assistant

import (
	"bufio"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `event: thread.run.created
data: {"id":"run_1","object":"thread.run","thread_id":"thread_1","assistant_id":"asst_1","status":"queued"}

: keep-alive

event: thread.message.delta
data: {"id":"msg_1","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"X is "}}]}}

event: thread.message.delta
data: {"id":"msg_1","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"Y."}}]}}

event: thread.message.completed
data: {"id":"msg_1","object":"thread.message","thread_id":"thread_1","role":"assistant","content":[{"type":"text","text":{"value":"X is Y.【1:0†source】","annotations":[]}}]}

event: thread.run.step.completed
data: {"id":"step_1","object":"thread.run.step"}

event: thread.run.completed
data: {"id":"run_1","object":"thread.run","thread_id":"thread_1","assistant_id":"asst_1","status":"completed"}

event: done
data: [DONE]

`

func collect(t *testing.T, body string) ([]Event, error) {
	t.Helper()
	var events []Event
	for ev, err := range readEvents(strings.NewReader(body)) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestReadEvents(t *testing.T) {
	events, err := collect(t, sampleStream)
	require.NoError(t, err)
	require.Len(t, events, 7)

	assert.Equal(t, EventRunCreated, events[0].Type)
	require.NotNil(t, events[0].Run)
	assert.Equal(t, "run_1", events[0].Run.ID)

	assert.Equal(t, EventMessageDelta, events[1].Type)
	assert.Equal(t, "X is ", events[1].Delta)
	assert.Equal(t, "Y.", events[2].Delta)

	assert.Equal(t, EventMessageCompleted, events[3].Type)
	require.NotNil(t, events[3].Message)
	require.Len(t, events[3].Message.Content, 1)
	require.NotNil(t, events[3].Message.Content[0].Text)
	assert.Equal(t, "X is Y.【1:0†source】", events[3].Message.Content[0].Text.Value)

	assert.Equal(t, EventType("thread.run.step.completed"), events[4].Type)
	assert.Nil(t, events[4].Run)

	assert.Equal(t, EventRunCompleted, events[5].Type)
	assert.Equal(t, EventDone, events[6].Type)
}

func TestReadEventsStopsAtDone(t *testing.T) {
	body := "event: done\ndata: [DONE]\n\nevent: thread.run.created\ndata: {\"id\":\"run_2\"}\n\n"

	events, err := collect(t, body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
}

func TestReadEventsWithoutTrailingBlankLine(t *testing.T) {
	body := "event: thread.message.completed\ndata: {\"id\":\"msg_1\",\"content\":[{\"type\":\"text\",\"text\":{\"value\":\"hi\"}}]}"

	events, err := collect(t, body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "hi", events[0].Message.Content[0].Text.Value)
}

func TestReadEventsErrorEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{"bare object", `{"code":"server_error","message":"The server had an error"}`, "The server had an error"},
		{"envelope", `{"error":{"code":"rate_limit_exceeded","message":"Rate limit reached","type":"requests"}}`, "Rate limit reached"},
		{"plain text", `boom`, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := collect(t, "event: error\ndata: "+tt.data+"\n\n")
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, EventError, events[0].Type)
			require.NotNil(t, events[0].Err)
			assert.Equal(t, tt.message, events[0].Err.Message)
		})
	}
}

func TestReadEventsMalformedPayload(t *testing.T) {
	_, err := collect(t, "event: thread.message.completed\ndata: {not json\n\n")
	require.Error(t, err)

	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr), "decode failures are not upstream errors")
	assert.Contains(t, err.Error(), "thread.message.completed")
}

func TestReadEventsReadFailure(t *testing.T) {
	body := iotest.TimeoutReader(strings.NewReader("event: thread.run.created\n"))

	var gotErr error
	for _, err := range readEvents(body) {
		if err != nil {
			gotErr = err
		}
	}

	var upErr *UpstreamError
	require.ErrorAs(t, gotErr, &upErr)
	assert.Equal(t, "stream run", upErr.Op)
}

func TestReadEventsLineTooLong(t *testing.T) {
	body := "event: thread.message.completed\ndata: " + strings.Repeat("x", maxEventSize) + "\n\n"

	_, err := collect(t, body)
	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)

	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr), "a local size limit is not a service failure")
}

func TestReadEventsConsumerBreak(t *testing.T) {
	count := 0
	for range readEvents(strings.NewReader(sampleStream)) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestIsTerminalRunFailure(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      bool
	}{
		{EventRunFailed, true},
		{EventRunCancelled, true},
		{EventRunExpired, true},
		{EventRunCompleted, false},
		{EventMessageCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.want, Event{Type: tt.eventType}.IsTerminalRunFailure())
		})
	}
}
