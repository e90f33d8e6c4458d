package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type apiConfig struct {
	store              *RegionStore
	draft              *PolygonDraft
	notifier           *changeNotifier
	cache              Cache
	provider           SeriesProvider
	httpClient         *http.Client
	ometeoArchiveURL   string
	refreshInterval    time.Duration
	timelineDaysBefore int
	timelineDaysAfter  int
	port               string
	devMode            bool
	logger             *slog.Logger
	nowFunc            func() time.Time
}

// getRequiredEnv retrieves an environment variable by key, and fatals if it's not set.
func getRequiredEnv(key string, logger *slog.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		logger.Error("environment variable must be set", "key", key)
		os.Exit(1)
	}
	return val
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func config() *apiConfig {
	devModeStr := os.Getenv("DEV_MODE")
	devMode, err := strconv.ParseBool(devModeStr)
	if err != nil {
		devMode = false
	}

	var logger *slog.Logger
	if devMode {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	redisURL := getRequiredEnv("REDIS_URL", logger)
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("could not parse Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opt)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Error("could not connect to Redis", "error", err)
		os.Exit(1)
	}
	cache := NewRedisCache(redisClient)

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	archiveURL := getEnv("OMETEO_ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive", logger)
	provider := NewOMeteoProvider(archiveURL, httpClient, logger)

	refreshIntervalMin := getEnvAsInt("REFRESH_INTERVAL_MIN", 60, logger)

	notifier := newChangeNotifier()

	cfg := apiConfig{
		store:              NewRegionStore(logger, provider, cache, notifier),
		draft:              NewPolygonDraft(),
		notifier:           notifier,
		cache:              cache,
		provider:           provider,
		httpClient:         httpClient,
		ometeoArchiveURL:   archiveURL,
		refreshInterval:    time.Duration(refreshIntervalMin) * time.Minute,
		timelineDaysBefore: getEnvAsInt("TIMELINE_DAYS_BEFORE", 15, logger),
		timelineDaysAfter:  getEnvAsInt("TIMELINE_DAYS_AFTER", 15, logger),
		port:               getEnv("PORT", "8080", logger),
		devMode:            devMode,
		logger:             logger,
		nowFunc:            time.Now,
	}

	return &cfg
}

// timelineGrid regenerates the slider grid for the configured window. The
// grid is cheap to rebuild and must never be patched in place.
func (cfg *apiConfig) timelineGrid() TimelineGrid {
	return defaultTimelineGrid(cfg.nowFunc(), cfg.timelineDaysBefore, cfg.timelineDaysAfter)
}
