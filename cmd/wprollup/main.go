// wprollup: work package hierarchy MCP server
//
// Keeps the done ratio and derived estimated hours of every parent work
// package in sync with its leaves, and exposes the hierarchy to AI
// coding tools over MCP.
//
// Usage:
//
//	wprollup serve     # Start MCP server (stdio transport)
//	wprollup version   # Print the version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/wprollup/internal/config"
	"github.com/HendryAvila/wprollup/internal/logging"
	rollupserver "github.com/HendryAvila/wprollup/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("wprollup v%s\n", rollupserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logging.Sync(log)

	s, cleanup, err := rollupserver.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serving on stdio", zap.String("config", cfgPath))
	err = server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serving stdio: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `wprollup v%s — work package roll-up MCP server

Usage:
  wprollup serve     Start the MCP server (stdio transport)
  wprollup version   Print the version

Configuration:
  Optional TOML file at $%s or ~/.wprollup/config.toml:

    data_dir       = "~/.wprollup"
    log_mode       = "prod"     # prod | dev
    log_level      = "info"
    max_tree_depth = 10

    [progress]
    done_ratio = "field"        # field | status | disabled

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "wprollup": {
        "command": "wprollup",
        "args": ["serve"]
      }
    }
  }
`, rollupserver.Version, config.EnvPath)
}
