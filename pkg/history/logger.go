package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mikeboe/tutor-ai/pkg/database"
)

// DBLogHandler is a slog.Handler that writes records to the
// interaction_logs table and forwards them to an optional console handler.
type DBLogHandler struct {
	DB            *database.PostgresDB
	InteractionID uuid.UUID

	next  slog.Handler
	attrs []slog.Attr
}

func NewDBLogHandler(db *database.PostgresDB, interactionID uuid.UUID, next slog.Handler) *DBLogHandler {
	return &DBLogHandler{
		DB:            db,
		InteractionID: interactionID,
		next:          next,
	}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.next != nil {
		return h.next.Enabled(ctx, level)
	}
	return true
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	metaJSON, err := json.Marshal(collectAttrs(h.attrs, r))
	if err != nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO interaction_logs (interaction_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Background context: the record must persist even when the request
	// context is already cancelled.
	_, dbErr := h.DB.Pool.Exec(context.Background(), query, h.InteractionID, r.Time, r.Level.String(), r.Message, metaJSON)

	var nextErr error
	if h.next != nil {
		nextErr = h.next.Handle(ctx, r)
	}
	return errors.Join(dbErr, nextErr)
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup only affects the forwarded output; stored metadata stays flat.
func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

func collectAttrs(base []slog.Attr, r slog.Record) map[string]any {
	attrs := make(map[string]any, len(base)+r.NumAttrs())
	for _, a := range base {
		attrs[a.Key] = attrValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = attrValue(a.Value)
		return true
	})
	return attrs
}

func attrValue(v slog.Value) any {
	v = v.Resolve()
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}
