package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	// Storage
	StorageDriver string // mysql | sqlite | memory
	DBDSN         string
	SQLitePath    string

	// Redis (optional; empty addr disables model preferences)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ (optional; empty URL disables async chat jobs)
	RabbitURL   string
	RabbitQueue string

	// OpenRouter
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterSiteURL string
	OpenRouterAppName string

	DefaultModel      string
	ChatContextWindow int
	MaxUploadBytes    int64

	CORSOrigins []string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = "mysql"
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "herochat.db"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "chat_jobs"
	}

	openRouterBaseURL := os.Getenv("OPENROUTER_BASE_URL")
	if openRouterBaseURL == "" {
		openRouterBaseURL = "https://openrouter.ai/api/v1"
	}

	defaultModel := os.Getenv("DEFAULT_MODEL")
	if defaultModel == "" {
		defaultModel = "deepseek-r1t-chimera"
	}

	window := 10
	if v := os.Getenv("CHAT_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			window = n
		}
	}

	maxUpload := int64(10 << 20) // 10 MiB
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxUpload = n
		}
	}

	var origins []string
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Config{
		Port: port,

		StorageDriver: driver,
		DBDSN:         os.Getenv("DB_DSN"),
		SQLitePath:    sqlitePath,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,

		OpenRouterBaseURL: openRouterBaseURL,
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),

		DefaultModel:      defaultModel,
		ChatContextWindow: window,
		MaxUploadBytes:    maxUpload,

		CORSOrigins: origins,
	}
}
