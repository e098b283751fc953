// Package webhook exposes review prompts over HTTP and accepts reviewer
// responses posted back by chat or ticketing integrations.
package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/viant/txshield/internal/clock"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/runtime/session"
	"github.com/viant/txshield/service/dao"
	"github.com/viant/txshield/service/dao/criteria"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/review"
)

// Server serves the review HTTP API.
type Server struct {
	channel  review.Channel
	registry session.Registry
	logger   *slog.Logger
	notify   func(*review.Prompt)
	router   *gin.Engine
}

// New builds the router. The registry is optional; without it the sessions
// endpoint answers 404.
func New(channel review.Channel, options ...Option) *Server {
	s := &Server{channel: channel}
	for _, opt := range options {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := router.Group("/v1")
	v1.GET("/prompts", s.handleListPrompts)
	v1.POST("/responses", s.handlePostResponse)
	if s.registry != nil {
		v1.GET("/sessions", s.handleListSessions)
	}
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("webhook shutdown failed", "error", err)
		}
	}()
	s.logger.Info("webhook listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "webhook server failed")
	}
	return nil
}

// Drain consumes the channel's prompt queue until ctx is done. Prompts are
// served from the outstanding set, so the queue only feeds the notify hook.
func (s *Server) Drain(ctx context.Context) error {
	for {
		msg, err := messaging.Next(ctx, s.channel.Prompts(), 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		prompt := msg.T()
		s.logger.Info("prompt available",
			"session_id", prompt.SessionID,
			"reviewer", prompt.Reviewer,
			"expires_at", prompt.ExpiresAt)
		if s.notify != nil {
			s.notify(prompt)
		}
		if err = msg.Ack(); err != nil {
			s.logger.Warn("failed to ack prompt", "session_id", prompt.SessionID, "error", err)
		}
	}
}

func (s *Server) handleListPrompts(c *gin.Context) {
	prompts := s.channel.Outstanding(c.Request.Context())
	if reviewer := c.Query("reviewer"); reviewer != "" {
		filtered := prompts[:0]
		for _, prompt := range prompts {
			if prompt.Reviewer == reviewer {
				filtered = append(filtered, prompt)
			}
		}
		prompts = filtered
	}
	if prompts == nil {
		prompts = []*review.Prompt{}
	}
	c.JSON(http.StatusOK, gin.H{"prompts": prompts})
}

type responseRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Reviewer  string `json:"reviewer" binding:"required"`
	Text      string `json:"text"`
}

func (s *Server) handlePostResponse(c *gin.Context) {
	var request responseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	response := &review.Response{
		SessionID:  request.SessionID,
		Reviewer:   request.Reviewer,
		Text:       request.Text,
		ReceivedAt: clock.Now(),
	}
	err := s.channel.Deliver(c.Request.Context(), response)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"sessionId": response.SessionID, "status": "accepted"})
	case errors.Is(err, review.ErrUnmatchedResponse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("failed to deliver response", "session_id", response.SessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type sessionView struct {
	SessionID     string        `json:"sessionId"`
	TransactionID string        `json:"transactionId"`
	Reviewer      string        `json:"reviewer"`
	State         session.State `json:"state"`
	RiskLevel     string        `json:"riskLevel,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func (s *Server) handleListSessions(c *gin.Context) {
	var parameters []*dao.Parameter
	if states := c.QueryArray("state"); len(states) > 0 {
		parameters = append(parameters, dao.NewParameter(criteria.ParamState, states...))
	}
	sessions, err := s.registry.List(c.Request.Context(), parameters...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		view := sessionView{
			SessionID:     sess.ID,
			TransactionID: sess.Transaction().ID,
			Reviewer:      sess.Reviewer,
			State:         sess.State(),
			CreatedAt:     sess.CreatedAt,
		}
		if verdict := sess.Verdict(); verdict != nil {
			view.RiskLevel = string(verdict.Level)
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}
