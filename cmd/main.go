package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digestgram/internal/bot"
	"digestgram/internal/channel"
	"digestgram/internal/config"
	"digestgram/internal/database"
	"digestgram/internal/digest"
	"digestgram/internal/pipeline"
	"digestgram/internal/scheduler"
	"digestgram/internal/summarizer"

	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.InfoContext(ctx, "No .env file is loaded",
			"error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	safeSummarizer := summarizer.NewSafe(initSummarizer(ctx, cfg, log), log)
	pipelineInst := pipeline.New(db, safeSummarizer, log)
	fetcher := channel.NewFetcher(log)
	digests := digest.New(db, fetcher, pipelineInst, log)

	botInst, err := bot.New(cfg.Token, db, pipelineInst, fetcher, digests, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, cfg.DigestCronSpec, botInst, digests, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.DigestCronSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.DigestCronSpec)

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initSummarizer(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
) summarizer.Summarizer {
	if cfg.YandexAPIKey != "" && cfg.YandexFolderID != "" {
		s, err := summarizer.NewYandexGPTSummarizer(summarizer.YandexGPTConfig{
			APIKey:           cfg.YandexAPIKey,
			FolderID:         cfg.YandexFolderID,
			BaseURL:          cfg.LLMBaseURL,
			OperationBaseURL: cfg.OperationBaseURL,
			PollInterval:     cfg.PollInterval,
			MaxPollAttempts:  cfg.MaxPollAttempts,
			HTTPTimeout:      cfg.HTTPTimeout,
		}, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create YandexGPT summarizer so fallback will be used",
				"error", err)

			return nil
		}

		log.InfoContext(ctx, "YandexGPT summarizer is initialized",
			"provider", "yandexgpt")

		return s
	}

	if cfg.OpenAIAPIKey != "" {
		s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
				"error", err)

			return nil
		}

		log.InfoContext(ctx, "OpenAI summarizer is initialized",
			"provider", "openai")

		return s
	}

	log.WarnContext(ctx, "No summarizer credentials are set so fallback will be used",
		"envVars", "YANDEX_API_KEY, YANDEX_FOLDER_ID, OPENAI_API_KEY")

	return nil
}
