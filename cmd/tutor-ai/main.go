package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mikeboe/tutor-ai/pkg/assistant"
	"github.com/mikeboe/tutor-ai/pkg/config"
	"github.com/mikeboe/tutor-ai/pkg/database"
	"github.com/mikeboe/tutor-ai/pkg/history"
	"github.com/mikeboe/tutor-ai/pkg/server"
	"github.com/mikeboe/tutor-ai/pkg/tutor"
	"github.com/spf13/cobra"
)

var pregunta string

func main() {
	// A missing .env is fine as long as the variables are set.
	_ = godotenv.Load()
	cfg := config.Load()

	// Setup structured logging
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	slog.SetDefault(slog.New(handler))

	client := assistant.New(assistant.Config{
		APIKey:  cfg.OpenAIApiKey,
		BaseURL: cfg.OpenAIBaseURL,
		OrgID:   cfg.OpenAIOrgID,
	})

	rootCmd := &cobra.Command{
		Use:   "tutor-ai",
		Short: "A terminal client for the TutorAI assistant",
		Long:  `tutor-ai asks the course assistant questions answered from the course documents, and keeps the assistant attached to its vector store.`,
	}

	askCmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask the assistant one question",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pregunta") {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)

				fmt.Print("Pregunta: ")
				input, _ := reader.ReadString('\n')
				pregunta = strings.TrimSpace(input)
			}
			if pregunta == "" {
				return errors.New("question cannot be empty")
			}

			var recorder tutor.Recorder
			if cfg.HistoryEnabled() {
				db, err := database.NewPostgresDB(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer db.Close()

				if err := db.InitSchema(cmd.Context()); err != nil {
					return fmt.Errorf("failed to initialize schema: %w", err)
				}
				recorder = history.NewStore(db)
			}

			svc := tutor.NewService(client, tutor.Config{
				AssistantID:   cfg.AssistantID,
				VectorStoreID: cfg.VectorStoreID,
			}, recorder)

			answer, err := svc.Interact(cmd.Context(), pregunta)
			if err != nil {
				return errors.New(server.ErrorDetail(err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			return nil
		},
	}
	askCmd.Flags().StringVarP(&pregunta, "pregunta", "p", "", "The question to ask")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Attach the configured vector store to the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.AttachVectorStore(cmd.Context(), cfg.AssistantID, cfg.VectorStoreID); err != nil {
				return err
			}
			slog.Info("Assistant synced", "assistant_id", cfg.AssistantID, "vector_store_id", cfg.VectorStoreID)
			return nil
		},
	}

	rootCmd.AddCommand(askCmd, syncCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
