package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/spacetravelling"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := run(serve); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "paths":
		if err := run(printPaths); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("spacetravelling %s\n", spacetravelling.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run(fn func(context.Context, spacetravelling.SiteConfig, *slog.Logger) error) error {
	cfg, err := spacetravelling.LoadConfig()
	if err != nil {
		return err
	}
	logger := spacetravelling.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg spacetravelling.SiteConfig, logger *slog.Logger) error {
	app := spacetravelling.New(cfg, spacetravelling.WithLogger(logger))
	return app.Start(ctx)
}

// printPaths lists the detail page of every published post, one per line.
func printPaths(ctx context.Context, cfg spacetravelling.SiteConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	app := spacetravelling.New(cfg, spacetravelling.WithLogger(logger))
	if err := app.Setup(ctx); err != nil {
		return err
	}
	for _, p := range app.Routes.Paths() {
		fmt.Println(p)
	}
	return nil
}

func printUsage() {
	fmt.Println(`spacetravelling - A blog front-end for Prismic built with Go, Echo, and templ

Usage:
  spacetravelling [command]

Commands:
  serve         Enumerate posts and start the HTTP server (default)
  paths         Print the path of every published post
  version       Print the version
  help          Show this help message

Configuration is read from the environment and an optional .env file.
PRISMIC_API_ENDPOINT is required.`)
}
