package main

import (
	"log/slog"
	"os"

	"live-trivia-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("trivia-service failed", "error", err)
		os.Exit(1)
	}
}
