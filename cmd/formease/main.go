// Command formease serves the voice form-filling API: form definitions,
// NLP extraction with local fallback, welcome messages and draft
// patching.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/joho/godotenv"

	"github.com/formease/formease/config"
	"github.com/formease/formease/forms"
	"github.com/formease/formease/health"
	"github.com/formease/formease/remote"
	"github.com/formease/formease/server"
)

func main() {
	confPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*confPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(confPath string) error {
	// A missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	conf, err := config.Load(confPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: conf.SlogLevel(),
	}))
	slog.SetDefault(logger)

	registry, err := forms.NewRegistry()
	if err != nil {
		return fmt.Errorf("load form definitions: %w", err)
	}
	logger.Info("loaded form definitions", "codes", registry.Codes())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	breaker := health.NewBreaker(logger)
	var gateway *remote.Gateway
	if conf.RemoteEnabled() {
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  conf.OpenAI.APIKey,
			BaseURL: conf.OpenAI.BaseURL,
			Model:   conf.OpenAI.Model,
		})
		if err != nil {
			return fmt.Errorf("create chat model: %w", err)
		}
		gateway, err = remote.NewGateway(chatModel, breaker, logger)
		if err != nil {
			return fmt.Errorf("create gateway: %w", err)
		}
		logger.Info("remote understanding enabled", "model", conf.OpenAI.Model)
	} else {
		logger.Info("no API key configured, running with local extraction only")
	}

	srv := server.New(registry, gateway, breaker, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", conf.Addr)
		errCh <- srv.Listen(conf.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
