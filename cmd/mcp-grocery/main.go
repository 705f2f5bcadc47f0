// Command mcp-grocery serves the grocery list, budget, history and reminder
// as read-only MCP tools over stdio.
//
// Usage:
//
//	./mcp-grocery                      # Start MCP server (stdio)
//	./mcp-grocery -config grocery.yaml # Use another config file
//
// It reads the same storage settings as the bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"smart-grocery/internal/config"
	"smart-grocery/internal/logging"
	"smart-grocery/internal/mcpserver"
	"smart-grocery/internal/repository"
	"smart-grocery/internal/service"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr.
	logger, err := logging.New(cfg.Log.Level, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := repository.NewBlobStore(cfg.Storage, logger.Named("storage"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	state := service.NewStateService(store, cfg.Storage.Key, logger.Named("state"))
	if err := state.Load(context.Background()); err != nil {
		logger.Warnw("starting with default state", "error", err)
	}

	s := mcpserver.NewServer(state, logger.Named("mcp"))
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
