package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"dcf_valuation/pkg/api/fundamentals"
	"dcf_valuation/pkg/api/valuation"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/llm"
	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/provider"
	"dcf_valuation/pkg/core/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()
	logging.Init()
	defer logging.Sync()

	// Valuation config: defaults unless CONFIG_PATH points at a YAML override.
	cfg := config.Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Printf("[WARNING] Failed to load config from %s: %v\n", path, err)
			fmt.Println("  Falling back to built-in defaults")
		} else {
			cfg = loaded
			fmt.Printf("[CONFIG] Loaded valuation config from %s\n", path)
		}
	}
	if path := os.Getenv("SECTOR_TABLE_PATH"); path != "" {
		if err := cfg.LoadSectorTable(path); err != nil {
			fmt.Printf("[WARNING] Failed to load sector table from %s: %v\n", path, err)
		} else {
			fmt.Printf("[CONFIG] Loaded sector table from %s\n", path)
		}
	}

	// Fundamentals provider selection
	var source provider.SnapshotProvider
	switch os.Getenv("DATA_SOURCE") {
	case "web":
		source = provider.NewWebProvider(os.Getenv("FUNDAMENTALS_URL"))
	default:
		source = provider.NewMockProvider()
	}
	cache := provider.NewCache(os.Getenv("REDIS_URL"))
	cached := provider.NewCachedProvider(source, cache, 0)
	fmt.Printf("[PROVIDER] Using fundamentals source: %s\n", cached.Name())

	// Persistence is optional; without DATABASE_URL results are ephemeral.
	var repo *store.ValuationRepo
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[WARNING] Database unavailable: %v\n", err)
		} else {
			repo = store.NewValuationRepo()
			defer store.Close()
			fmt.Println("[STORE] Valuation persistence enabled")
		}
	}

	engine := pipeline.NewEngine(cfg)
	commentary := llm.FromEnv()

	valuation.InitHandler(engine, cached, repo, commentary)
	fundamentals.InitHandler(cached)

	// Valuation endpoints
	http.HandleFunc("/api/valuation/dcf", valuation.HandleDCF)
	http.HandleFunc("/api/valuation/hmodel", valuation.HandleHModel)
	http.HandleFunc("/api/valuation/sotp", valuation.HandleSOTP)
	http.HandleFunc("/api/valuation/unified", valuation.HandleUnified)
	http.HandleFunc("/api/valuation/scenarios", valuation.HandleScenarios)
	http.HandleFunc("/api/valuation/sensitivity", valuation.HandleSensitivity)
	http.HandleFunc("/api/valuation/report", valuation.HandleReport)
	http.HandleFunc("/api/valuation/history", valuation.HandleHistory)
	http.HandleFunc("/api/valuation/last", valuation.HandleLast)

	// Fundamentals endpoints
	http.HandleFunc("/api/fundamentals", fundamentals.HandleGet)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - POST /api/valuation/dcf")
	fmt.Println("  - POST /api/valuation/hmodel")
	fmt.Println("  - POST /api/valuation/sotp")
	fmt.Println("  - POST /api/valuation/unified")
	fmt.Println("  - POST /api/valuation/scenarios")
	fmt.Println("  - POST /api/valuation/sensitivity")
	fmt.Println("  - POST /api/valuation/report  (?format=html)")
	fmt.Println("  - GET  /api/valuation/history?ticker=AAPL")
	fmt.Println("  - GET  /api/valuation/last?ticker=AAPL&model=3stage")
	fmt.Println("  - GET  /api/fundamentals?ticker=AAPL")

	// Use os.Exit to print error and exit with code 1 if it fails (e.g. port in use)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
