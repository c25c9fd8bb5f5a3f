package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bowerhall/codegene/internal/agent"
	"github.com/bowerhall/codegene/internal/alerts"
	"github.com/bowerhall/codegene/internal/bot"
	"github.com/bowerhall/codegene/internal/chat"
	"github.com/bowerhall/codegene/internal/config"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/llm"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/session"
	"github.com/bowerhall/codegene/internal/speech"
	"github.com/bowerhall/codegene/internal/storage"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings, err := config.LoadSettings(cfg.SettingsPath, cfg.LLM.Model)
	if err != nil {
		logger.Fatal("failed to load settings", "error", err)
	}
	go func() {
		if err := settings.Watch(ctx); err != nil {
			logger.Warn("settings reload disabled", "error", err)
		}
	}()

	model, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := model.Ping(pingCtx); err != nil {
		logger.Warn("model backend not reachable yet", "provider", cfg.LLM.Provider, "error", err)
	}
	pingCancel()

	chats := chat.NewStore()
	index, err := chat.NewIndex()
	if err != nil {
		logger.Warn("message search disabled", "error", err)
	} else {
		chats.SetIndex(index)
		defer index.Close()
	}

	extractor := extract.New(extract.NewTesseract(cfg.OCR.Command))
	codegene := agent.New(model, session.New(chats), extractor, settings)

	if cfg.Speech.Enabled {
		codegene.SetRecognizer(speech.NewWhisper(speech.Config{
			BaseURL:       cfg.Speech.BaseURL,
			APIKey:        cfg.Speech.APIKey,
			Model:         cfg.Speech.Model,
			ListenTimeout: cfg.Speech.ListenTimeout,
			PhraseLimit:   cfg.Speech.PhraseLimit,
		}))
		logger.Info("voice input enabled", "url", cfg.Speech.BaseURL, "model", cfg.Speech.Model)
	}

	if cfg.Storage.Enabled {
		storageClient, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
		if err != nil {
			logger.Error("failed to create storage client", "error", err)
		} else if err := storageClient.Init(ctx); err != nil {
			logger.Error("failed to init storage bucket", "error", err)
		} else {
			codegene.SetExporter(storageClient)
			logger.Info("chat export enabled", "bucket", storageClient.Bucket())
		}
	}

	b, err := bot.New(bot.Config{
		Provider:    cfg.Bot.Provider,
		Token:       cfg.Bot.Token,
		OwnerChatID: cfg.Bot.OwnerChatID,
	}, codegene)
	if err != nil {
		logger.Fatal("failed to create bot", "provider", cfg.Bot.Provider, "error", err)
	}

	alerter := alerts.New(
		func(message string) {
			if cfg.Heartbeat.ChatID == 0 && cfg.Bot.Provider != "console" {
				logger.Warn("alert", "message", message)
				return
			}
			if err := b.Send(cfg.Heartbeat.ChatID, message); err != nil {
				logger.Error("notification failed", "error", err)
			}
		},
		time.Hour,
	)
	codegene.SetAlerter(alerter)

	heartbeat := agent.NewHeartbeat(model, alerter)
	if err := heartbeat.Start(ctx, cfg.Heartbeat.Schedule); err != nil {
		logger.Error("heartbeat disabled", "error", err)
	} else {
		defer heartbeat.Stop()
	}

	logger.Info("codegene started",
		"bot", cfg.Bot.Provider,
		"llm", cfg.LLM.Provider,
		"model", settings.Model(),
		"voice", cfg.Speech.Enabled,
		"export", cfg.Storage.Enabled,
	)

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("bot stopped", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()
}
