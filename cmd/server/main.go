package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/ai"
	"github.com/herochat/herochat/internal/chat"
	"github.com/herochat/herochat/internal/config"
	"github.com/herochat/herochat/internal/httpapi"
	"github.com/herochat/herochat/internal/store"
	"github.com/herochat/herochat/internal/store/rabbitmq"
	"github.com/herochat/herochat/internal/store/redisstore"
)

func main() {
	// Load .env if present, without overwriting already-set variables.
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	st, err := store.Open(cfg.StorageDriver, storeDSN(cfg), log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}

	var prefs *redisstore.Prefs
	if cfg.RedisAddr != "" {
		prefs = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer prefs.Close()
	} else {
		log.Info("redis not configured, model preferences disabled")
	}

	var pub chat.JobPublisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatal("connect rabbitmq", zap.Error(err))
		}
		defer p.Close()
		pub = p
	} else {
		log.Info("rabbitmq not configured, async chat disabled")
	}

	provider := ai.NewOpenRouterClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)

	svc := chat.NewService(st, provider, prefs, pub, log, cfg.ChatContextWindow, cfg.DefaultModel)
	router := httpapi.NewRouter(st, svc, prefs, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func storeDSN(cfg config.Config) string {
	if cfg.StorageDriver == "sqlite" {
		return cfg.SQLitePath
	}
	return cfg.DBDSN
}
