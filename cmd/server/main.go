package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"okuda/tabi-planner/internal/api"
	"okuda/tabi-planner/internal/config"
	"okuda/tabi-planner/internal/generator"
	"okuda/tabi-planner/internal/lodging"
	"okuda/tabi-planner/internal/repository/mongo"
	"okuda/tabi-planner/internal/service"
	"okuda/tabi-planner/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Tabi Planner Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("plans"))
		mongo.EnsureTransportIndexes(ctx, appDB.Collection("transport_snapshots"))
		mongo.EnsureScheduleIndexes(ctx, appDB.Collection("schedules"))
		mongo.EnsureChecklistIndexes(ctx, appDB.Collection("checklists"), appDB.Collection("checklist_items"))
		mongo.EnsureMasterDataIndexes(ctx, appDB.Collection("items"), appDB.Collection("categories"))
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("templates"))
		mongo.EnsureShareIndexes(ctx, appDB.Collection("shares"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Collaborator Clients ---
	itineraryGenerator, err := generator.NewGeminiGenerator(cfg.Gemini)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize itinerary generator: %v", err)
	}
	lodgingSearcher, err := lodging.NewRakutenSearcher(cfg.Rakuten)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize lodging search client: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	transportRepo := mongo.NewMongoTransportRepository(appDB)
	scheduleRepo := mongo.NewMongoScheduleRepository(appDB)
	checklistRepo := mongo.NewMongoChecklistRepository(appDB)
	masterRepo := mongo.NewMongoMasterDataRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	shareRepo := mongo.NewMongoShareRepository(appDB)
	txRunner := mongo.NewMongoTxRunner(dbClient)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	planService := service.NewPlanService(
		userRepo, planRepo, transportRepo, scheduleRepo,
		checklistRepo, templateRepo, shareRepo,
		txRunner, itineraryGenerator, lodgingSearcher,
	)
	checklistService := service.NewChecklistService(
		planRepo, scheduleRepo, checklistRepo, masterRepo, txRunner, itineraryGenerator,
	)
	templateService := service.NewTemplateService(
		planRepo, scheduleRepo, checklistRepo, masterRepo,
		templateRepo, shareRepo, fileStorage, cfg.Share.BaseURL,
	)
	exportService := service.NewExportService(templateRepo, shareRepo, cfg.Share.BaseURL)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, planService, checklistService, templateService, exportService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second, // generation calls run inline
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
