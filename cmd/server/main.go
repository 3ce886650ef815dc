package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server"
	"github.com/dmitrijs2005/goblog/internal/server/config"
)

func main() {

	ctx := context.Background()
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, logger)

	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}

}
