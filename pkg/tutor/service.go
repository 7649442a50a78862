// Package tutor forwards a student's question to the hosted assistant and
// returns its answer without citation markers.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/tutor-ai/pkg/assistant"
	"github.com/mikeboe/tutor-ai/pkg/observability"
	"github.com/sashabaranov/go-openai"
)

// Backend is the subset of the assistant service an interaction needs.
type Backend interface {
	CreateThread(ctx context.Context, question, vectorStoreID string) (string, error)
	StreamRun(ctx context.Context, threadID, assistantID string) iter.Seq2[assistant.Event, error]
}

// Config identifies the assistant and the vector store it searches. Both
// are fixed for the lifetime of the process.
type Config struct {
	AssistantID   string
	VectorStoreID string
}

type Service struct {
	backend  Backend
	recorder Recorder
	cfg      Config
}

// NewService creates a Service. A nil recorder disables persistence.
func NewService(backend Backend, cfg Config, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		backend:  backend,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Answer is the sanitized reply to one question.
type Answer struct {
	InteractionID uuid.UUID
	ThreadID      string
	Text          string
}

// Interact opens a thread holding question, streams an assistant run on it
// until completion and returns the last completed message without citation
// markers. Errors are ErrServiceResponseMissing, *UpstreamServiceError or
// *InternalAdapterError.
func (s *Service) Interact(ctx context.Context, question string) (answer *Answer, err error) {
	rec := s.recorder
	id, startErr := rec.Start(ctx, question)
	if startErr != nil {
		slog.Warn("Failed to record interaction, continuing without history", "error", startErr)
		rec = nopRecorder{}
		id, _ = rec.Start(ctx, question)
	}

	logger := rec.Logger(id)
	if requestID := requestIDFrom(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}

	var threadID string
	defer func() {
		if r := recover(); r != nil {
			answer, err = nil, &InternalAdapterError{Message: fmt.Sprint(r)}
		}
		s.finish(ctx, rec, logger, id, threadID, answer, err)
	}()

	start := time.Now()
	threadID, err = s.backend.CreateThread(ctx, question, s.cfg.VectorStoreID)
	observability.UpstreamDuration.WithLabelValues("create_thread").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, classify(err)
	}
	logger.Info("Thread created", "thread_id", threadID)

	if err := rec.MarkStreaming(ctx, id, threadID); err != nil {
		logger.Warn("Failed to update interaction status", "error", err)
	}

	text, err := s.consume(ctx, logger, threadID)
	if err != nil {
		return nil, err
	}

	return &Answer{
		InteractionID: id,
		ThreadID:      threadID,
		Text:          StripCitations(text),
	}, nil
}

// consume reads the run stream to the end and returns the text of the last
// completed message.
func (s *Service) consume(ctx context.Context, logger *slog.Logger, threadID string) (string, error) {
	start := time.Now()
	defer func() {
		observability.UpstreamDuration.WithLabelValues("stream_run").Observe(time.Since(start).Seconds())
	}()

	var candidate *string

	for ev, err := range s.backend.StreamRun(ctx, threadID, s.cfg.AssistantID) {
		if err != nil {
			return "", classify(err)
		}

		switch {
		case ev.Type == assistant.EventMessageCompleted:
			text, err := firstText(ev.Message)
			if err != nil {
				return "", &InternalAdapterError{Message: err.Error(), Err: err}
			}
			logger.Debug("Message completed", "message_id", ev.Message.ID, "text_len", len(text))
			candidate = &text

		case ev.Type == assistant.EventError:
			return "", streamError(ev.Err)

		case ev.IsTerminalRunFailure():
			return "", runFailure(ev)
		}
	}

	if candidate == nil {
		return "", ErrServiceResponseMissing
	}
	return *candidate, nil
}

func (s *Service) finish(ctx context.Context, rec Recorder, logger *slog.Logger, id uuid.UUID, threadID string, answer *Answer, err error) {
	outcome := Outcome(err)
	observability.InteractionsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		logger.Error("Interaction failed", "thread_id", threadID, "outcome", outcome, "error", err)
		if recErr := rec.Fail(ctx, id, threadID, err.Error()); recErr != nil {
			logger.Warn("Failed to record interaction failure", "error", recErr)
		}
		return
	}

	logger.Info("Interaction completed", "thread_id", threadID, "answer_len", len(answer.Text))
	if recErr := rec.Complete(ctx, id, threadID, answer.Text); recErr != nil {
		logger.Warn("Failed to record interaction answer", "error", recErr)
	}
}

// Outcome maps an Interact error to its metrics label.
func Outcome(err error) string {
	var upErr *UpstreamServiceError
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, ErrServiceResponseMissing):
		return observability.OutcomeMissing
	case errors.As(err, &upErr):
		return observability.OutcomeUpstreamError
	default:
		return observability.OutcomeInternalError
	}
}

func classify(err error) error {
	var upErr *assistant.UpstreamError
	if errors.As(err, &upErr) {
		return &UpstreamServiceError{Message: upErr.Message, Err: err}
	}
	return &InternalAdapterError{Message: err.Error(), Err: err}
}

func streamError(apiErr *openai.APIError) error {
	if apiErr == nil {
		return &UpstreamServiceError{Message: "unknown stream error"}
	}
	return &UpstreamServiceError{Message: apiErr.Message, Err: apiErr}
}

func runFailure(ev assistant.Event) error {
	message := "run " + strings.TrimPrefix(string(ev.Type), "thread.run.")
	if ev.Run != nil && ev.Run.LastError != nil && ev.Run.LastError.Message != "" {
		message = ev.Run.LastError.Message
	}
	return &UpstreamServiceError{Message: message}
}

// firstText returns the text value of the message's first content block.
func firstText(msg *openai.Message) (string, error) {
	if msg == nil || len(msg.Content) == 0 {
		return "", errors.New("completed message has no content")
	}
	block := msg.Content[0]
	if block.Text == nil {
		return "", fmt.Errorf("first content block is %q, not text", block.Type)
	}
	return block.Text.Value, nil
}
