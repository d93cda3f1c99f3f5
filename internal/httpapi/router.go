// Package httpapi wires the HTTP routes onto the chat relay and storage.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/chat"
	"github.com/herochat/herochat/internal/config"
	"github.com/herochat/herochat/internal/httpapi/handlers"
	"github.com/herochat/herochat/internal/httpapi/middleware"
	"github.com/herochat/herochat/internal/store"
	"github.com/herochat/herochat/internal/store/redisstore"
)

// NewRouter builds the gin engine. Gin requires one wildcard name per path
// segment, so /api/sessions/:id is the user id on the list route and the
// session id everywhere else.
func NewRouter(st store.Storage, svc *chat.Service, prefs *redisstore.Prefs, cfg config.Config, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed"})
	})

	h := handlers.NewHandler(st, svc, prefs, log, cfg.MaxUploadBytes)

	api := r.Group("/api")

	api.POST("/users", h.CreateUser)

	api.GET("/sessions/:id", h.ListSessions)
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id/messages", h.ListMessages)
	api.DELETE("/sessions/:id", h.DeleteSession)

	api.POST("/chat", h.Chat)
	api.POST("/chat/async", h.ChatAsync)
	api.GET("/chat/jobs/:id", h.GetChatJob)

	api.POST("/analyze-image", middleware.MaxBody(cfg.MaxUploadBytes+1<<20), h.AnalyzeImage)

	api.GET("/models", h.GetModels)
	api.POST("/switch-model", h.SwitchModel)
	api.GET("/system-stats", h.SystemStats)
	api.POST("/synthesize-voice", h.SynthesizeVoice)

	return r
}
