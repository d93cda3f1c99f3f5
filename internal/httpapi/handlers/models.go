package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/ai"
)

// GetModels returns the static model catalog keyed by internal short key.
func (h *Handler) GetModels(c *gin.Context) {
	c.JSON(http.StatusOK, ai.Catalog)
}

type switchModelReq struct {
	ModelID string `json:"modelId"`
	UserID  string `json:"userId"`
}

// SwitchModel records the caller's model preference. Models are remote, so
// there is nothing to load or unload; the preference only seeds the default
// for later chat requests.
func (h *Handler) SwitchModel(c *gin.Context) {
	var req switchModelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	if strings.TrimSpace(req.ModelID) == "" {
		fail(c, http.StatusBadRequest, "modelId is required")
		return
	}

	if err := h.Prefs.SetModel(c.Request.Context(), req.UserID, req.ModelID); err != nil {
		// preference storage is best effort
		h.Log.Warn("store model preference failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Model preference updated (client-side)",
	})
}

// SystemStats reports static placeholder stats. Models run remotely, so
// there is no local VRAM accounting to expose.
func (h *Handler) SystemStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"modelsLoaded":       1,
		"totalVRAM":          0,
		"vramGB":             0,
		"models":             []string{},
		"currentChatModel":   "API Mode",
		"currentVisionModel": "API Mode",
	})
}

type synthesizeVoiceReq struct {
	Text        string `json:"text"`
	Personality string `json:"personality"`
}

// SynthesizeVoice is a placeholder until a TTS backend is wired in.
func (h *Handler) SynthesizeVoice(c *gin.Context) {
	var req synthesizeVoiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Voice synthesis would be implemented here",
		"audioUrl": nil,
	})
}
