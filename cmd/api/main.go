package main

import (
	"os"

	"github.com/sparks-2204/course-recommendation-system/internal/pkg/logger"
	"github.com/sparks-2204/course-recommendation-system/internal/server"
)

// @title Course Registration API
// @version 1.0
// @description Course catalog, registration ledger and recommendations

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
