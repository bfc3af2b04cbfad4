// Package server exposes the workflow engine over HTTP. Bot adapters post
// normalized chat events to it; replies travel through whatever Surface the
// server was constructed with, not through the HTTP response.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
)

// Server routes inbound events into the engine.
type Server struct {
	engine    *engine.Engine
	workflows []*flow.Workflow
	surface   reply.Surface
	log       *slog.Logger
	router    *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a Server over the given workflows.
func New(eng *engine.Engine, workflows []*flow.Workflow, surface reply.Surface, opts ...Option) *Server {
	s := &Server{
		engine:    eng,
		workflows: workflows,
		surface:   surface,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.handleHealthz)
	r.POST("/events", s.handleEvent)
	s.router = r
	return s
}

// Router returns the configured gin engine, for mounting and for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("http ingress listening", "addr", addr, "workflows", len(s.workflows))
	return s.router.Run(addr)
}

type eventRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	GroupID   string `json:"group_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

type eventResponse struct {
	Matched []string `json:"matched"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "workflows": len(s.workflows)})
}

// handleEvent runs every loaded workflow against the posted event and
// reports which ones fired. Execution is synchronous: by the time the
// response is written, all replies have been delivered to the surface.
func (s *Server) handleEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := flow.Event{UserID: req.UserID, GroupID: req.GroupID, MessageID: req.MessageID}
	matched := []string{}
	for _, wf := range s.workflows {
		if s.engine.Execute(c.Request.Context(), wf, ev, req.Text, s.surface) {
			matched = append(matched, wf.ID)
		}
	}

	s.log.Debug("event processed", "user", req.UserID, "matched", len(matched))
	c.JSON(http.StatusOK, eventResponse{Matched: matched})
}
