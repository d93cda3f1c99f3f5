package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/chat"
	"github.com/herochat/herochat/internal/persona"
	"github.com/herochat/herochat/internal/store"
)

type chatReq struct {
	Message     string `json:"message"`
	Personality string `json:"personality"`
	SessionID   string `json:"sessionId"`
	UserID      string `json:"userId"`
	ModelID     string `json:"modelId"`
}

func (r chatReq) toRequest() chat.Request {
	return chat.Request{
		Message:     r.Message,
		Personality: persona.Key(r.Personality),
		SessionID:   r.SessionID,
		UserID:      r.UserID,
		ModelID:     r.ModelID,
	}
}

// Chat streams the bot reply back as newline-delimited {"response": "..."}
// JSON objects over a chunked text/plain body. Validation fails with a JSON
// 400 before any byte is streamed; once streaming has begun the status is
// already 200 and failures can only terminate the body.
func (h *Handler) Chat(c *gin.Context) {
	var body chatReq
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	req := body.toRequest()
	if err := req.Validate(); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, _ := c.Writer.(http.Flusher)
	sink := func(chunk string) {
		line, err := json.Marshal(gin.H{"response": chunk})
		if err != nil {
			return
		}
		c.Writer.Write(append(line, '\n'))
		if flusher != nil {
			flusher.Flush()
		}
	}

	if _, err := h.ChatSvc.StreamReply(c.Request.Context(), req, sink); err != nil {
		if !c.Writer.Written() {
			h.Log.Error("chat request failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Failed to process chat request")
			return
		}
		// mid-stream failure: the body simply ends
		h.Log.Error("chat stream aborted", zap.Error(err))
	}
}

// ChatAsync enqueues the turn as a background job instead of streaming.
func (h *Handler) ChatAsync(c *gin.Context) {
	var body chatReq
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	req := body.toRequest()
	if err := req.Validate(); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	if req.SessionID == "" {
		fail(c, http.StatusBadRequest, "sessionId is required")
		return
	}

	job, err := h.ChatSvc.EnqueueChat(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrAsyncDisabled):
			fail(c, http.StatusServiceUnavailable, "Async chat is not configured")
		case errors.Is(err, store.ErrNotFound):
			fail(c, http.StatusNotFound, "Session not found")
		default:
			h.Log.Error("enqueue chat failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Failed to enqueue chat request")
		}
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GetChatJob reports async job status for polling.
func (h *Handler) GetChatJob(c *gin.Context) {
	job, err := h.ChatSvc.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "Job not found")
			return
		}
		h.storageFail(c, err, "Failed to fetch job")
		return
	}
	c.JSON(http.StatusOK, job)
}
