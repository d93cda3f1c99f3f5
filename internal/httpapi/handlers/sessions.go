package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/herochat/herochat/internal/persona"
	"github.com/herochat/herochat/internal/store"
)

// ListSessions returns a user's sessions, most recently active first.
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.Store.GetUserChatSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storageFail(c, err, "Failed to fetch sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type createSessionReq struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Personality string `json:"personality"`
}

// CreateSession creates a chat session, lazily creating a placeholder user
// when the given id is unknown.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	if p := strings.TrimSpace(req.Personality); p != "" && !persona.Valid(persona.Key(p)) {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	ctx := c.Request.Context()
	if req.UserID != "" {
		if err := h.Store.EnsureUser(ctx, req.UserID, req.UserID); err != nil {
			h.storageFail(c, err, "Failed to create session")
			return
		}
	}

	sess := &store.ChatSession{
		UserID:      req.UserID,
		Title:       req.Title,
		Personality: req.Personality,
	}
	if err := h.Store.CreateChatSession(ctx, sess); err != nil {
		h.storageFail(c, err, "Failed to create session")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ListMessages returns a session's messages in transcript order.
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.Store.GetSessionMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storageFail(c, err, "Failed to fetch messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// DeleteSession removes a session and its messages; deleting an unknown id
// still reports success.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.Store.DeleteChatSession(c.Request.Context(), c.Param("id")); err != nil {
		h.storageFail(c, err, "Failed to delete session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
