package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikeboe/tutor-ai/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	mcpSessionHeader  = "Mcp-Session-Id"
	mcpProtocolHeader = "Mcp-Protocol-Version"
)

// NewRouter builds the gin engine: CORS for a single browser origin,
// request ids, metrics and the handler's routes.
func NewRouter(h *Handler, allowedOrigin string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{allowedOrigin},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		// Listed explicitly: browsers take a credentialed "*" literally.
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader,
			mcpSessionHeader, mcpProtocolHeader, "Last-Event-ID",
		},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader, mcpSessionHeader},
		AllowCredentials: true,
	}))
	r.Use(RequestID())
	r.Use(observability.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.RegisterRoutes(r)

	return r
}

// RequestID tags every request with a uuid, reusing a valid incoming
// X-Request-ID header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
