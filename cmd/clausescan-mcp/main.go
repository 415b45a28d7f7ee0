package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/clausescan/clausescan-go/core"
	"github.com/clausescan/clausescan-go/mcptool"
)

func main() {
	rulePath := flag.String("rules", os.Getenv("CLAUSESCAN_RULES"), "path to a YAML rule file (default: built-in table)")
	watch := flag.Bool("watch", false, "reload the rule file on change")
	flag.Parse()

	// stdout carries the MCP stream; all logging goes to stderr
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
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

	s := mcptool.NewServer(rules, logger)

	logger.Info("clausescan MCP server starting")
	if err := mcptool.ServeStdio(s); err != nil {
		logger.Fatal("mcp server failed", zap.Error(err))
	}
}
