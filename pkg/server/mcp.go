package server

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskTutorInput is the argument of the ask_tutor MCP tool.
type AskTutorInput struct {
	Pregunta string `json:"pregunta" jsonschema:"the student's question"`
}

// NewMCPServer exposes Interact as the ask_tutor tool.
func NewMCPServer(t Interactor) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "tutor-ai", Version: "1.0.0"},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_tutor",
		Description: "Ask the course tutor a question. The answer is grounded on the course documents.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input AskTutorInput) (*mcp.CallToolResult, struct{}, error) {
		answer, err := t.Interact(context.WithoutCancel(ctx), input.Pregunta)
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: ErrorDetail(err)}},
			}, struct{}{}, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: answer.Text}},
		}, struct{}{}, nil
	})

	return server
}

// NewMCPHandler serves the MCP server over streamable HTTP.
func NewMCPHandler(t Interactor) http.Handler {
	server := NewMCPServer(t)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
