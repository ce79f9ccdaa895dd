package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/service/presence"
)

// APIHandlers serves the read-only admin endpoints.
type APIHandlers struct {
	hub      ChatHub
	sessions SessionSource
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub ChatHub, sessions SessionSource, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:      hub,
		sessions: sessions,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is one presence journal entry.
type SessionResponse struct {
	ConnID   string `json:"conn_id"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joined_at"`
	LeftAt   *int64 `json:"left_at,omitempty"`
}

// Stats returns the live registry snapshot.
// GET /stats
func (h *APIHandlers) Stats(c *gin.Context) {
	snap, err := h.hub.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("snapshot failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Sessions lists recent joins and departures.
// GET /sessions?limit=N
func (h *APIHandlers) Sessions(c *gin.Context) {
	if h.sessions == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session journal disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	sessions, err := h.sessions.Recent(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, presence.ErrNoStore) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "session journal disabled"})
			return
		}
		h.log.Error().Err(err).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp := SessionResponse{
			ConnID:   s.ConnID,
			Name:     s.Name,
			JoinedAt: s.JoinedAt.Unix(),
		}
		if s.LeftAt != nil {
			left := s.LeftAt.Unix()
			resp.LeftAt = &left
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}
