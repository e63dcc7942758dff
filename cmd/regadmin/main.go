package main

import (
	"context"
	"os"

	"github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/bootstrap"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/logger"
)

func main() {
	cfg, _, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		os.Exit(1)
	}
	lgr := logger.WithComponent("regadmin")

	storage, err := bootstrap.SetupStorage(context.Background(), cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to open storage")
		os.Exit(1)
	}

	cli := &commandLine{
		cfg:       cfg,
		repos:     storage.Repos,
		analytics: services.NewAnalyticsService(storage.Repos, lgr),
		logger:    lgr,
		out:       os.Stdout,
	}

	err = cli.run(os.Args)
	if reportable(err) {
		lgr.Error().Err(err).Msg("Command failed")
	}
	storage.Close()
	if err != nil {
		os.Exit(1)
	}
}
