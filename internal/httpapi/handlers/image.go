package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/chat"
	"github.com/herochat/herochat/internal/persona"
)

// AnalyzeImage accepts a multipart image upload, persists it into the
// session transcript and responds with the persona's analysis.
func (h *Handler) AnalyzeImage(c *gin.Context) {
	sessionID := strings.TrimSpace(c.PostForm("sessionId"))
	if sessionID == "" {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	p := c.PostForm("personality")
	if p != "" && !persona.Valid(persona.Key(p)) {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	if header.Size > h.MaxUploadBytes {
		fail(c, http.StatusBadRequest, "Image too large")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		fail(c, http.StatusBadRequest, "File must be an image")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to read image")
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		fail(c, http.StatusBadRequest, "Image too large")
		return
	}

	analysis, err := h.ChatSvc.AnalyzeImage(c.Request.Context(), chat.ImageUpload{
		SessionID:   sessionID,
		Personality: persona.Key(p),
		Filename:    header.Filename,
		MimeType:    mimeType,
		Data:        data,
	})
	if err != nil {
		h.Log.Error("image analysis failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to analyze image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
