package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/photoblog/resize-images/cmd/resize-images/commands"
)

func main() {
	// Optional .env file; real environment variables win.
	_ = godotenv.Load()

	// Structured events go to stderr so the stdout narrative stays readable.
	// The level is raised or lowered once config is loaded.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: commands.LogLevel,
	}))
	slog.SetDefault(logger)

	commands.Execute()
}
