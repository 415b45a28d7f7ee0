package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clausescan/clausescan-go/core"
	"github.com/clausescan/clausescan-go/server"
	"github.com/clausescan/clausescan-go/store"
)

func main() {
	host := flag.String("host", envOr("CLAUSESCAN_HOST", "localhost"), "listen host")
	port := flag.Int("port", envIntOr("CLAUSESCAN_PORT", 5001), "listen port")
	rulePath := flag.String("rules", os.Getenv("CLAUSESCAN_RULES"), "path to a YAML rule file (default: built-in table)")
	dbPath := flag.String("db", os.Getenv("CLAUSESCAN_DB"), "path to the analysis history database (empty disables history)")
	watch := flag.Bool("watch", false, "reload the rule file on change")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	rules, err := core.NewRuleManager(*rulePath, logger)
	if err != nil {
		logger.Fatal("failed to load rules", zap.Error(err))
	}
	defer rules.Close()

	if *watch {
		if *rulePath == "" {
			logger.Fatal("-watch requires -rules")
		}
		if err := rules.Watch(); err != nil {
			logger.Fatal("failed to watch rule file", zap.Error(err))
		}
	}

	var history *store.AnalysisStore
	if *dbPath != "" {
		history, err = store.New(*dbPath)
		if err != nil {
			logger.Fatal("failed to open analysis store", zap.Error(err))
		}
		defer history.Close()
	}

	srv, err := server.NewServer(rules, history, logger, &server.Config{
		Host: *host,
		Port: *port,
	})
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
