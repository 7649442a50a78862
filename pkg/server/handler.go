package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikeboe/tutor-ai/pkg/history"
	"github.com/mikeboe/tutor-ai/pkg/tutor"
)

// StatusMessage is returned by GET /.
const StatusMessage = "API de Asistente TutorAI en funcionamiento"

// Interactor answers a single question.
type Interactor interface {
	Interact(ctx context.Context, question string) (*tutor.Answer, error)
}

// HistoryReader serves the stored interactions.
type HistoryReader interface {
	List(ctx context.Context) ([]history.Interaction, error)
	Get(ctx context.Context, id uuid.UUID) (*history.Interaction, error)
	Logs(ctx context.Context, id uuid.UUID) ([]history.LogEntry, error)
}

type InteractRequest struct {
	Pregunta *string `json:"pregunta" binding:"required"`
}

type InteractResponse struct {
	Response string `json:"response"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	Tutor   Interactor
	History HistoryReader
}

// NewHandler creates a Handler. history may be nil, in which case the
// /api/interactions routes are not registered.
func NewHandler(t Interactor, history HistoryReader) *Handler {
	return &Handler{Tutor: t, History: history}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.root)
	r.POST("/interact", h.interact)
	r.Any("/mcp", gin.WrapH(NewMCPHandler(h.Tutor)))

	if h.History == nil {
		return
	}

	api := r.Group("/api")
	{
		api.GET("/interactions", h.listInteractions)
		api.GET("/interactions/:id", h.getInteraction)
		api.GET("/interactions/:id/logs", h.getInteractionLogs)
	}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": StatusMessage})
}

func (h *Handler) interact(c *gin.Context) {
	var req InteractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}

	// The run keeps going when the client disconnects.
	ctx := context.WithoutCancel(c.Request.Context())
	ctx = tutor.ContextWithRequestID(ctx, c.GetString(requestIDKey))

	answer, err := h.Tutor.Interact(ctx, *req.Pregunta)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: ErrorDetail(err)})
		return
	}

	c.JSON(http.StatusOK, InteractResponse{Response: answer.Text})
}

// ErrorDetail renders an Interact error for API clients.
func ErrorDetail(err error) string {
	var upErr *tutor.UpstreamServiceError
	var inErr *tutor.InternalAdapterError
	switch {
	case errors.Is(err, tutor.ErrServiceResponseMissing):
		return "No hay respuesta del asistente"
	case errors.As(err, &upErr):
		return "OpenAI Error: " + upErr.Message
	case errors.As(err, &inErr):
		return "Internal Server Error: " + inErr.Message
	default:
		return "Internal Server Error: " + err.Error()
	}
}

func (h *Handler) listInteractions(c *gin.Context) {
	interactions, err := h.History.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}
	// Return empty list instead of null
	if interactions == nil {
		interactions = []history.Interaction{}
	}
	c.JSON(http.StatusOK, interactions)
}

func (h *Handler) getInteraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid uuid"})
		return
	}

	in, err := h.History.Get(c.Request.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, in)
}

func (h *Handler) getInteractionLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid uuid"})
		return
	}

	logs, err := h.History.Logs(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}

	if logs == nil {
		logs = []history.LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}
