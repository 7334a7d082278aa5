package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clagate/clagate/internal/handlers"
	"github.com/clagate/clagate/internal/middleware"
	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/internal/services"
	"github.com/clagate/clagate/internal/workers"
	"github.com/clagate/clagate/pkg/config"
	"github.com/clagate/clagate/pkg/database"
	"github.com/clagate/clagate/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init()

	// Initialize database
	if err := database.Init(config.AppConfig.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Initialize repositories
	identityRepo := repositories.NewIdentityRepository(database.DB)
	versionRepo := repositories.NewAgreementVersionRepository(database.DB)
	signatureRepo := repositories.NewSignatureRepository(database.DB)
	entityRepo := repositories.NewEntityAgreementRepository(database.DB)
	snapshotRepo := repositories.NewPRSnapshotRepository(database.DB)
	deliveryRepo := repositories.NewDeliveryRepository(database.DB)
	jobRepo := repositories.NewJobRepository(database.DB)

	// Initialize services
	identityService := services.NewIdentityService(identityRepo)
	agreementService := services.NewAgreementService(
		versionRepo, signatureRepo,
		config.AppConfig.Agreement.GrandfatherPriorVersions,
	)
	gateService := services.NewGateService(agreementService, identityService, entityRepo)
	ingestService := services.NewIngestService(
		deliveryRepo, snapshotRepo, jobRepo, identityService,
		config.AppConfig.Agreement.ExemptAccounts,
	)
	githubService := services.NewGitHubServiceFromConfig()
	reporterService := services.NewReporterService(
		githubService,
		config.AppConfig.Reporter.CheckName,
		config.AppConfig.Signing.PageURL,
	)

	// Initialize worker manager
	requestTimeout := time.Duration(config.AppConfig.GitHub.RequestTimeout) * time.Second
	workerManager := workers.NewWorkerManager(
		jobRepo, snapshotRepo, agreementService, gateService, reporterService,
		config.AppConfig.Reporter.MaxAttempts, requestTimeout,
	)

	// Initialize router
	router := gin.Default()

	// Setup routes
	setupRoutes(router, identityService, agreementService, ingestService, entityRepo, snapshotRepo)

	// Start workers
	if err := workerManager.StartAll(); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}
	defer workerManager.StopAll()

	// Setup server
	server := &http.Server{
		Addr:         ":" + config.AppConfig.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(config.AppConfig.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.AppConfig.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Server starting on :%s", config.AppConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	logger.Info("Server stopped")
}

func setupRoutes(
	router *gin.Engine,
	identityService *services.IdentityService,
	agreementService *services.AgreementService,
	ingestService *services.IngestService,
	entityRepo *repositories.EntityAgreementRepository,
	snapshotRepo *repositories.PRSnapshotRepository,
) {
	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(ingestService)
	signatureHandler := handlers.NewSignatureHandler(identityService, agreementService, ingestService)
	adminHandler := handlers.NewAdminHandler(agreementService, identityService, ingestService, entityRepo, snapshotRepo)
	healthHandler := handlers.NewHealthHandler()

	// Platform webhooks, authenticated by HMAC signature
	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.VerifyWebhookSignature(config.AppConfig.GitHub.WebhookSecret))
	{
		webhooks.POST("/github", webhookHandler.HandlePullRequest)
	}

	// Signing flow and operator API, authenticated by bearer token
	api := router.Group("/api")
	api.Use(middleware.SigningAuth(config.AppConfig.Signing.JWTSecret))
	{
		api.POST("/signatures", signatureHandler.Submit)
		api.POST("/versions", adminHandler.PublishVersion)
		api.POST("/entities", adminHandler.UpsertEntityAgreement)
		api.POST("/identities/merge", adminHandler.MergeIdentities)
		api.GET("/prs/:owner/:repo/:number", adminHandler.GetPRStatus)
	}

	// Health check endpoint
	router.GET("/health", healthHandler.HealthCheck)
}
