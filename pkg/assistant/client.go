// Package assistant is a thin client for the hosted assistant service: it
// creates conversation threads scoped to a vector store, keeps the assistant
// attached to that vector store and streams runs as typed events.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultAssistantVersion = "v2"

// defaultTimeout bounds a whole call, streamed runs included, when no
// HTTPClient is supplied.
const defaultTimeout = 10 * time.Minute

// Config holds the connection settings for the assistant service.
type Config struct {
	APIKey     string
	BaseURL    string
	OrgID      string
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	api              *openai.Client
	httpClient       *http.Client
	baseURL          string
	apiKey           string
	orgID            string
	assistantVersion string
}

// New creates a Client. Missing credentials are not validated here; the
// service rejects the first call instead.
func New(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.OrgID = cfg.OrgID

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	oc.HTTPClient = httpClient

	version := oc.AssistantVersion
	if version == "" {
		version = defaultAssistantVersion
	}

	return &Client{
		api:              openai.NewClientWithConfig(oc),
		httpClient:       httpClient,
		baseURL:          oc.BaseURL,
		apiKey:           cfg.APIKey,
		orgID:            cfg.OrgID,
		assistantVersion: version,
	}
}

// CreateThread opens a thread holding question as its first user message,
// with file search scoped to vectorStoreID. It returns the thread id.
func (c *Client) CreateThread(ctx context.Context, question, vectorStoreID string) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{
			{
				Role:    openai.ThreadMessageRoleUser,
				Content: question,
			},
		},
		ToolResources: &openai.ToolResourcesRequest{
			FileSearch: &openai.FileSearchToolResourcesRequest{
				VectorStoreIDs: []string{vectorStoreID},
			},
		},
	})
	if err != nil {
		return "", wrapError("create thread", err)
	}
	return thread.ID, nil
}

// AttachVectorStore points the assistant's file search at vectorStoreID,
// leaving its model and tools untouched.
func (c *Client) AttachVectorStore(ctx context.Context, assistantID, vectorStoreID string) error {
	current, err := c.api.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		return wrapError("retrieve assistant", err)
	}

	_, err = c.api.ModifyAssistant(ctx, assistantID, openai.AssistantRequest{
		Model: current.Model,
		ToolResources: &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{
				VectorStoreIDs: []string{vectorStoreID},
			},
		},
	})
	if err != nil {
		return wrapError("update assistant", err)
	}
	return nil
}

type runStreamRequest struct {
	AssistantID string `json:"assistant_id"`
	Stream      bool   `json:"stream"`
}

// StreamRun starts a run of assistantID on threadID and returns its events.
// The request is sent when iteration starts; the sequence cannot be
// restarted. Failures are yielded as errors and end the sequence.
func (c *Client) StreamRun(ctx context.Context, threadID, assistantID string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		resp, err := c.openRunStream(ctx, threadID, assistantID)
		if err != nil {
			yield(Event{}, err)
			return
		}
		defer resp.Body.Close()

		for ev, err := range readEvents(resp.Body) {
			if !yield(ev, err) {
				return
			}
		}
	}
}

func (c *Client) openRunStream(ctx context.Context, threadID, assistantID string) (*http.Response, error) {
	body, err := json.Marshal(runStreamRequest{AssistantID: assistantID, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	url := fmt.Sprintf("%s/threads/%s/runs", c.baseURL, threadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create run request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("OpenAI-Beta", "assistants="+c.assistantVersion)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.orgID != "" {
		req.Header.Set("OpenAI-Organization", c.orgID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{
			Op:      "stream run",
			Message: "connection error: " + err.Error(),
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, mapHTTPError("stream run", resp)
	}

	return resp, nil
}
