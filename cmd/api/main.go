package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kurihiro0119/opendata-harvester/internal/api"
	"github.com/kurihiro0119/opendata-harvester/internal/catalog"
	"github.com/kurihiro0119/opendata-harvester/internal/config"
	"github.com/kurihiro0119/opendata-harvester/internal/harvester"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
	"github.com/kurihiro0119/opendata-harvester/internal/storage/postgres"
	"github.com/kurihiro0119/opendata-harvester/internal/storage/sqlite"
	"github.com/kurihiro0119/opendata-harvester/internal/summary"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize storage
	var store storage.Store
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		store, err = sqlite.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer store.Close()

	// Initialize destination catalog and harvest manager
	cat := catalog.NewCKANCatalog(cfg.CatalogURL, cfg.CatalogAPIKey)
	manager := harvester.NewManager(store, cat, cfg.Workers, cfg.HTTPTimeout)
	reporter := summary.NewReporter(store)

	// Initialize handler
	handler := api.NewHandler(store, manager, reporter)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Storage type: %s\n", cfg.StorageType)
	fmt.Printf("Catalog: %s\n", cfg.CatalogURL)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
