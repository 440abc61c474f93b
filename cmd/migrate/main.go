package main

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/Rrens/taskboard/internal/config"
	"github.com/Rrens/taskboard/internal/logging"
	"github.com/Rrens/taskboard/internal/repository/mongo"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if _, err := logging.Setup(cfg.Logging); err != nil {
		panic(fmt.Sprintf("Failed to setup logging: %v", err))
	}

	fmt.Printf("Applying migrations from %s to database %q...\n", cfg.Database.MigrationsPath, cfg.Database.Name)

	if err := mongo.RunMigrations(cfg.Database); err != nil {
		panic(fmt.Sprintf("Migration failed: %v", err))
	}

	fmt.Println("Migrations applied")
}
