// Package history persists tutor interactions and their log lines in
// PostgreSQL.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mikeboe/tutor-ai/pkg/database"
	"github.com/mikeboe/tutor-ai/pkg/tutor"
)

const (
	StatusPending   = "pending"
	StatusStreaming = "streaming"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned by Get for an unknown interaction id.
var ErrNotFound = errors.New("interaction not found")

var _ tutor.Recorder = (*Store)(nil)

type Store struct {
	DB *database.PostgresDB
}

func NewStore(db *database.PostgresDB) *Store {
	return &Store{DB: db}
}

type Interaction struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    *string   `json:"answer,omitempty"`
	Status    string    `json:"status"`
	ThreadID  *string   `json:"thread_id,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Store) Start(ctx context.Context, question string) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO interactions (id, question, status)
		VALUES ($1, $2, $3)
	`
	if _, err := s.DB.Pool.Exec(ctx, query, id, question, StatusPending); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create interaction: %w", err)
	}
	return id, nil
}

// Logger returns a logger whose records are stored against the interaction
// and also written to the default handler.
func (s *Store) Logger(id uuid.UUID) *slog.Logger {
	next := slog.Default().Handler().WithAttrs([]slog.Attr{slog.String("interaction_id", id.String())})
	return slog.New(NewDBLogHandler(s.DB, id, next))
}

func (s *Store) MarkStreaming(ctx context.Context, id uuid.UUID, threadID string) error {
	_, err := s.DB.Pool.Exec(ctx,
		"UPDATE interactions SET status = $2, thread_id = NULLIF($3, ''), updated_at = NOW() WHERE id = $1",
		id, StatusStreaming, threadID)
	if err != nil {
		return fmt.Errorf("failed to update interaction: %w", err)
	}
	return nil
}

func (s *Store) Complete(ctx context.Context, id uuid.UUID, threadID, answer string) error {
	_, err := s.DB.Pool.Exec(ctx,
		"UPDATE interactions SET status = $2, thread_id = NULLIF($3, ''), answer = $4, updated_at = NOW() WHERE id = $1",
		id, StatusCompleted, threadID, answer)
	if err != nil {
		return fmt.Errorf("failed to complete interaction: %w", err)
	}
	return nil
}

func (s *Store) Fail(ctx context.Context, id uuid.UUID, threadID, reason string) error {
	_, err := s.DB.Pool.Exec(ctx,
		"UPDATE interactions SET status = $2, thread_id = NULLIF($3, ''), error = $4, updated_at = NOW() WHERE id = $1",
		id, StatusFailed, threadID, reason)
	if err != nil {
		return fmt.Errorf("failed to fail interaction: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Interaction, error) {
	query := `
		SELECT id, question, answer, status, thread_id, error, created_at, updated_at
		FROM interactions
		WHERE id = $1
	`
	in := &Interaction{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&in.ID, &in.Question, &in.Answer, &in.Status, &in.ThreadID, &in.Error, &in.CreatedAt, &in.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}
	return in, nil
}

func (s *Store) List(ctx context.Context) ([]Interaction, error) {
	query := `
		SELECT id, question, answer, status, thread_id, error, created_at, updated_at
		FROM interactions
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.Question, &in.Answer, &in.Status, &in.ThreadID, &in.Error, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

func (s *Store) Logs(ctx context.Context, id uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM interaction_logs
		WHERE interaction_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
