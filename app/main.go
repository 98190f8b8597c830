package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mklsv/deal-comb/app/api"
	"github.com/mklsv/deal-comb/app/cfg"
	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/extract"
	"github.com/mklsv/deal-comb/app/process"
	"github.com/mklsv/deal-comb/app/source"
	"github.com/mklsv/deal-comb/app/store"
	"github.com/mklsv/deal-comb/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting Deal Comb server (version %s)...", appCfg.Version)

	// Load investment thesis
	thesis, err := config.LoadThesis(appCfg.ThesisFile)
	if err != nil {
		log.Fatalf("Failed to load thesis from %s: %v", appCfg.ThesisFile, err)
	}
	log.Printf("Thesis loaded: sectors %v, stages %v, $%.1fM-$%.1fM",
		thesis.TargetSubsectors, thesis.TargetStages, thesis.MinAmount, thesis.MaxAmount)

	// Open the deal store
	log.Printf("Opening deal store in %s...", appCfg.DataDir)
	dataStore, err := store.Open(appCfg.DataDir, thesis.DedupAmountTolerance)
	if err != nil {
		log.Fatalf("Failed to open deal store: %v", err)
	}
	log.Printf("Deal store loaded: %d deals", dataStore.Metadata().TotalEvents)

	// Load source configurations
	log.Printf("Loading source configurations from %s...", appCfg.SourcesDir)
	loader := config.NewLoader(appCfg.SourcesDir)
	configs, err := loader.LoadAll()
	if err != nil {
		log.Fatalf("Failed to load configurations: %v", err)
	}
	log.Printf("Loaded %d source configurations", len(configs))

	// Initialize core components
	processor := process.NewProcessor(thesis)
	httpClient := &http.Client{Timeout: time.Duration(appCfg.RequestTimeout) * time.Second}
	sourceClient := source.NewClient(httpClient, appCfg.UserAgent)

	var extractor tasks.ExtractorInterface
	var scheduler tasks.TaskSchedulerInterface

	if appCfg.GeminiAPIKey == "" {
		log.Printf("Warning: GEMINI_API_KEY not set, ingestion is disabled")
	} else {
		generator, err := extract.NewGeminiGenerator(context.Background(),
			appCfg.GeminiAPIKey, appCfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to initialize extraction client: %v", err)
		}

		retry := extract.DefaultRetryPolicy()
		if appCfg.RetryAttempts > 0 {
			retry.MaxAttempts = appCfg.RetryAttempts
		}
		extractor = extract.NewExtractor(generator, thesis, retry)

		// Initialize and start scheduler
		log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
		scheduler = tasks.NewScheduler(configs, sourceClient, extractor, processor, dataStore)
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configs, thesis, dataStore, sourceClient,
		extractor, processor, scheduler, time.Duration(appCfg.ArticleDelay)*time.Second)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Deals:         http://localhost:%s/deals", appCfg.Port)
		log.Printf("  Metadata:      http://localhost:%s/metadata", appCfg.Port)
		log.Printf("  Forecast:      http://localhost:%s/forecast", appCfg.Port)
		log.Printf("  Gaps:          http://localhost:%s/gaps", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List sources:  http://localhost:%s/api/sources (requires API key)", appCfg.Port)
			log.Printf("  Add deal:      http://localhost:%s/api/deals (POST, requires API key)", appCfg.Port)
			log.Printf("  Ingest:        http://localhost:%s/api/sources/<name>/ingest (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Deal Comb server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Deal Comb server shutdown complete")
}
