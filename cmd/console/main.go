package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskora/internal/apiclient"
	"taskora/internal/console"
	"taskora/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("TASKORA_API", "http://localhost:5000/api"), "task API base URL")
	token := flag.String("token", os.Getenv("TASKORA_TOKEN"), "bearer token for mutations")
	watch := flag.Bool("watch", false, "re-fetch when other clients change tasks")
	color := flag.Bool("color", true, "colour status tags")
	logLevel := flag.String("log-level", "warn", "log level (logs go to stderr)")
	flag.Parse()

	logger.InitWriter(*logLevel, false, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []apiclient.Option
	if *token != "" {
		opts = append(opts, apiclient.WithToken(*token))
	}
	client := apiclient.New(*apiURL, opts...)

	model := console.NewModel(client)
	shell := console.NewShell(model, os.Stdout, console.Renderer{Color: *color})

	if *watch {
		go shell.Watch(ctx, client, 3*time.Second)
	}

	if err := shell.Run(ctx, os.Stdin); err != nil {
		logger.Fatal("console", "error", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
