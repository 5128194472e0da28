package main

import (
	"os"

	"github.com/uniadmit/admission/internal/pkg/logger"
	"github.com/uniadmit/admission/internal/server"
)

// @title UniAdmit Admissions API
// @version 1.0
// @description Student admission backend: applications, document uploads, admin review and offer letters.

// @contact.name Admissions Support
// @contact.email admissions@uniadmit.example

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
	// NewServer loads config, connects and migrates the database, seeds and wires the router
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run the server (this blocks until shutdown signal)
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	os.Exit(0)
}
