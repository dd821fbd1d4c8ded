package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sussi.app/classroom-monitor/internal/api"
	"sussi.app/classroom-monitor/internal/config"
	"sussi.app/classroom-monitor/internal/core"
	"sussi.app/classroom-monitor/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize document store (driver selected by configuration)
	var dbStore store.Store
	switch config.AppConfig.StoreDriver {
	case "memory":
		log.Println("Using in-memory store with fixture roster")
		dbStore = store.NewMemStore()
	default:
		sqliteStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		dbStore = sqliteStore
	}
	defer dbStore.Close()

	// Initialize LLM client
	llamaClient := core.NewLlamaClient(
		config.AppConfig.LlamaAPIURL,
		config.AppConfig.LlamaAPIKey,
		config.AppConfig.LlamaModel,
	)

	// Initialize services
	classroomID := config.AppConfig.ClassroomID
	messageService := core.NewMessageService(dbStore)
	assignmentService := core.NewAssignmentService(dbStore)
	rosterService := core.NewRosterService(dbStore, classroomID)
	chatService := core.NewChatService(llamaClient, messageService, classroomID)
	automations := core.NewAutomationRegistry()

	// Advance simulated students on the dashboard refresh cadence until
	// shutdown.
	simCtx, stopSimulation := context.WithCancel(context.Background())
	defer stopSimulation()
	rosterService.StartSimulation(simCtx, time.Duration(config.AppConfig.SimulationInterval)*time.Second)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(rosterService, messageService, assignmentService, chatService, automations, classroomID)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Two LLM round-trips can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSimulation()

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
