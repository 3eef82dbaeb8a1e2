// Command partsctl runs parts desk administration tasks without the server:
// validating import files, writing templates, migrating the database and
// managing users and projects.
package main

import (
	"os"

	"github.com/joho/godotenv"

	_ "github.com/JonMunkholm/partsdesk/internal/core/schemas" // Register component schemas
	"github.com/JonMunkholm/partsdesk/internal/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"), "text")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
