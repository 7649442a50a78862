package database

import (
	"context"
	"fmt"
)

func (db *PostgresDB) InitSchema(ctx context.Context) error {
	// 1. Interactions Table
	interactionsQuery := `
		CREATE TABLE IF NOT EXISTS interactions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			question TEXT NOT NULL,
			answer TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			thread_id TEXT,
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, interactionsQuery); err != nil {
		return fmt.Errorf("failed to create interactions table: %w", err)
	}

	// 2. Interaction Logs Table
	logsQuery := `
		CREATE TABLE IF NOT EXISTS interaction_logs (
			id SERIAL PRIMARY KEY,
			interaction_id UUID NOT NULL REFERENCES interactions(id) ON DELETE CASCADE,
			timestamp TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			metadata JSONB
		);
	`
	if _, err := db.Pool.Exec(ctx, logsQuery); err != nil {
		return fmt.Errorf("failed to create interaction_logs table: %w", err)
	}

	// Indexes for faster querying
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_interaction_logs_interaction_id ON interaction_logs(interaction_id)"); err != nil {
		return fmt.Errorf("failed to create index on interaction_logs: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at DESC)"); err != nil {
		return fmt.Errorf("failed to create index on interactions: %w", err)
	}

	return nil
}
