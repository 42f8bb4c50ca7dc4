package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/internal/app"
	"github.com/meetscribe/meetscribe/internal/cli"
	"github.com/meetscribe/meetscribe/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:   "meetscribe",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})

	application, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	deps := &cli.Dependencies{
		App:    application,
		Config: cfg,
	}

	return cli.NewRootCmd(deps).Execute()
}
