// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vendorpulse/api/analytics"
	"vendorpulse/api/database"
	"vendorpulse/api/handlers"
	"vendorpulse/api/middleware"
	"vendorpulse/api/models"
	"vendorpulse/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize PostgreSQL (users, catalog, orders, snapshots) ---
	dbClient, err := database.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	// --- Initialize ClickHouse (storefront events) ---
	chClient, err := database.NewClickHouseDB()
	if err != nil {
		log.Fatalf("Failed to initialize ClickHouse database: %v", err)
	}
	defer chClient.Close()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := dbClient.EnsureSchema(bootCtx); err != nil {
		log.Fatalf("Failed to ensure PostgreSQL schema: %v", err)
	}
	if err := chClient.EnsureEventsTable(bootCtx); err != nil {
		log.Fatalf("Failed to ensure ClickHouse events table: %v", err)
	}
	bootCancel()

	// --- Initialize Stores ---
	userStore := store.NewUserStore(dbClient.DB)
	eventStore := store.NewEventStore(chClient)
	catalogStore := store.NewCatalogStore(dbClient.DB)
	snapshotStore := store.NewSnapshotStore(dbClient.DB, 2*time.Hour)
	resolver := store.NewProductResolver(catalogStore, os.Getenv("RESOLVER_LEGACY_FALLBACK") != "off")

	// --- Analytics engine, batch job, scheduler ---
	engine := analytics.NewEngine(eventStore, catalogStore, userStore, resolver)
	job := analytics.NewJob(engine, userStore, snapshotStore, 30*time.Second)
	scheduler := analytics.NewScheduler(job, os.Getenv("AGGREGATION_SCHEDULE"))
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start aggregation scheduler: %v", err)
	}
	defer scheduler.Stop()

	// --- Initialize Handlers ---
	authHandlers := handlers.NewAuthHandlers(userStore)
	trackHandlers := handlers.NewTrackHandlers(eventStore)
	analyticsHandlers := handlers.NewAnalyticsHandlers(engine, job, eventStore, snapshotStore)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		// Authentication Endpoints (no authentication required)
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		// Scheduler trigger, guarded by a shared-secret header instead of JWT.
		api.POST("/internal/aggregate", analyticsHandlers.RunAggregation)

		// Protected Routes (require a valid JWT token)
		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.POST("/track", trackHandlers.TrackEvent)

			analyticsGroup := protected.Group("/analytics")
			{
				analyticsGroup.GET("/summary", analyticsHandlers.GetSummary)
				analyticsGroup.GET("/snapshot", analyticsHandlers.GetSnapshot)
				analyticsGroup.POST("/trends", analyticsHandlers.GetTrends)
				analyticsGroup.GET("/events",
					middleware.RequireRole(models.RoleAdmin),
					analyticsHandlers.ExportEvents)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Analytics API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Analytics API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
