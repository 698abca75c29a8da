package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"itledger/cmd"
	"itledger/internal/config"
	"itledger/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().
		Str("database", cfg.DatabasePath).
		Str("extractor", cfg.Extractor).
		Msg("Starting itledger")

	cmd.Execute(cfg)
}
