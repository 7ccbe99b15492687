package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shopbot/pkg/app"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/telegram"
	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("SHOPBOT_CONFIG"), "path to the YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if cfg.Telegram.Token == "" {
		logger.Fatal("telegram.token is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}
	defer a.Close(context.Background())

	channel := telegram.NewChannel(a.Orchestrator, logger)
	b, err := bot.New(cfg.Telegram.Token, channel.Options()...)
	if err != nil {
		logger.Error("Failed to create bot", zap.Error(err))
		return
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		logger.Error("Failed to get bot info", zap.Error(err))
		return
	}
	logger.Info("Telegram bot started", zap.Int64("id", me.ID), zap.String("username", me.Username))

	// Blocks until ctx is cancelled.
	b.Start(ctx)

	logger.Info("Telegram bot stopped")
}
