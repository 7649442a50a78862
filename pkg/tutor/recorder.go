package tutor

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Recorder persists interactions and their log lines. Errors returned by a
// Recorder are logged by the Service and never fail an interaction.
type Recorder interface {
	Start(ctx context.Context, question string) (uuid.UUID, error)
	Logger(id uuid.UUID) *slog.Logger
	MarkStreaming(ctx context.Context, id uuid.UUID, threadID string) error
	Complete(ctx context.Context, id uuid.UUID, threadID, answer string) error
	Fail(ctx context.Context, id uuid.UUID, threadID, reason string) error
}

type nopRecorder struct{}

func (nopRecorder) Start(context.Context, string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (nopRecorder) Logger(id uuid.UUID) *slog.Logger {
	return slog.Default().With("interaction_id", id.String())
}

func (nopRecorder) MarkStreaming(context.Context, uuid.UUID, string) error { return nil }

func (nopRecorder) Complete(context.Context, uuid.UUID, string, string) error { return nil }

func (nopRecorder) Fail(context.Context, uuid.UUID, string, string) error { return nil }

type requestIDKey struct{}

// ContextWithRequestID attaches the HTTP request id so interaction logs can
// be correlated with access logs.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
