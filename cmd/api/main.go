package main

import (
	"os"

	"github.com/yigit/alumnisphere/internal/pkg/logger"
	"github.com/yigit/alumnisphere/internal/server"
)

// @title AlumniSphere API
// @version 1.0
// @description Alumni records, accounts, academic units, contact messages and user settings
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@alumnisphere.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

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
		// setup functions log the details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
