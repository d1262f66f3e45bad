package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/cipherdesk/cipherdesk/internal/buildinfo"
	"github.com/cipherdesk/cipherdesk/internal/client/cli"
	"github.com/cipherdesk/cipherdesk/internal/client/config"
	"github.com/cipherdesk/cipherdesk/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	f, err := os.OpenFile("cipherdesk.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer f.Close()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(f, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
