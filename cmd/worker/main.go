package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/config"
	"github.com/satriajanaka/backend-mart/internal/obs"
	"github.com/satriajanaka/backend-mart/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(
		envOrDefault("OBS_LOG_FORMAT", "json"),
		envOrDefault("OBS_LOG_LEVEL", "info"),
	).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	concurrency := 5
	if v, err := strconv.Atoi(os.Getenv("WORKER_CONCURRENCY")); err == nil && v > 0 {
		concurrency = v
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})

	processor := &tasks.Processor{
		Email: common.NopEmailSender{},
		Log:   logger,
	}

	logger.Info().Int("concurrency", concurrency).Msg("worker starting")
	if err := srv.Run(processor.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
