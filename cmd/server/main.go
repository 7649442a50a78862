package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mikeboe/tutor-ai/pkg/assistant"
	"github.com/mikeboe/tutor-ai/pkg/config"
	"github.com/mikeboe/tutor-ai/pkg/database"
	"github.com/mikeboe/tutor-ai/pkg/history"
	"github.com/mikeboe/tutor-ai/pkg/server"
	"github.com/mikeboe/tutor-ai/pkg/tutor"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Setup structured logging
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	slog.SetDefault(slog.New(handler))

	client := assistant.New(assistant.Config{
		APIKey:  cfg.OpenAIApiKey,
		BaseURL: cfg.OpenAIBaseURL,
		OrgID:   cfg.OpenAIOrgID,
	})

	if cfg.SyncAssistant {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := client.AttachVectorStore(ctx, cfg.AssistantID, cfg.VectorStoreID); err != nil {
			slog.Warn("Failed to attach vector store to assistant", "assistant_id", cfg.AssistantID, "error", err)
		} else {
			slog.Info("Assistant synced", "assistant_id", cfg.AssistantID, "vector_store_id", cfg.VectorStoreID)
		}
		cancel()
	}

	var (
		recorder tutor.Recorder
		reader   server.HistoryReader
	)
	if cfg.HistoryEnabled() {
		db, err := database.NewPostgresDB(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.InitSchema(context.Background()); err != nil {
			slog.Error("Failed to initialize schema", "error", err)
			os.Exit(1)
		}

		store := history.NewStore(db)
		recorder = store
		reader = store
	} else {
		slog.Info("DATABASE_URL not set, interaction history disabled")
	}

	svc := tutor.NewService(client, tutor.Config{
		AssistantID:   cfg.AssistantID,
		VectorStoreID: cfg.VectorStoreID,
	}, recorder)

	r := server.NewRouter(server.NewHandler(svc, reader), cfg.AllowedOrigin)

	slog.Info("Server starting", "port", cfg.Port, "allowed_origin", cfg.AllowedOrigin)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
