package main

import (
	"context"
	"net/http"

	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/poofware/locshare-service/internal/app"
	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/controllers"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/routes"
	"github.com/poofware/locshare-service/internal/services"
	"github.com/poofware/locshare-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	identityRepo := repositories.NewIdentityRepository(application.DB, cfg.DBEncryptionKey)
	attestationRepo := repositories.NewAttestationRepository(application.DB)
	groupRepo := repositories.NewGroupRepository(application.DB)
	locationRepo := repositories.NewLocationRepository(application.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, cfg)
	identityService := services.NewIdentityService(identityRepo, cfg)
	attestationService := services.NewAttestationService(identityRepo, attestationRepo, rateLimiterService, cfg)
	sessionService := services.NewSessionService(identityRepo, attestationRepo)
	groupService := services.NewGroupService(groupRepo, identityRepo)
	locationService := services.NewLocationService(locationRepo, groupService, cfg)
	cleanupService := services.NewCleanupService(attestationRepo, locationRepo, rateLimitRepo)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := routes.NewRouter(routes.Controllers{
		Health:      controllers.NewHealthController(application.DB),
		Identity:    controllers.NewIdentityController(identityService),
		Attestation: controllers.NewAttestationController(attestationService),
		Group:       controllers.NewGroupController(groupService),
		Location:    controllers.NewLocationController(locationService),
	}, sessionService)

	//----------------------------------------------------------------------
	// Nightly cleanup of expired attestations, locations and counters
	//----------------------------------------------------------------------
	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", func() {
		if e := cleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled cleanup failed")
		}
	}); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule cleanup job")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
