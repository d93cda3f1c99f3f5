// Package handlers binds the chat relay and storage onto the HTTP routes.
// The response shapes match the original client contract: bare entities on
// success, {"message": "..."} on failure.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/chat"
	"github.com/herochat/herochat/internal/store"
	"github.com/herochat/herochat/internal/store/redisstore"
)

type Handler struct {
	Store   store.Storage
	ChatSvc *chat.Service
	Prefs   *redisstore.Prefs
	Log     *zap.Logger

	MaxUploadBytes int64
}

func NewHandler(st store.Storage, svc *chat.Service, prefs *redisstore.Prefs, log *zap.Logger, maxUpload int64) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		Store:          st,
		ChatSvc:        svc,
		Prefs:          prefs,
		Log:            log,
		MaxUploadBytes: maxUpload,
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// storageFail maps storage sentinels onto the HTTP status the original
// surfaced for the same condition.
func (h *Handler) storageFail(c *gin.Context, err error, fallback string) {
	switch {
	case err == store.ErrNotFound:
		fail(c, http.StatusNotFound, "Not found")
	case err == store.ErrUnavailable:
		h.Log.Error("storage unavailable", zap.Error(err))
		fail(c, http.StatusInternalServerError, fallback)
	default:
		h.Log.Error("storage error", zap.Error(err))
		fail(c, http.StatusInternalServerError, fallback)
	}
}
