package main

import (
	"log"
	"time"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/handlers"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Trapper{},
		&models.Record{},
		&models.DosageChartRow{},
		&models.ChoiceCategory{},
		&models.ChoiceOption{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Object storage (R2 when configured, local uploads dir otherwise)
	services.InitializeStorage(cfg)

	// Seed the clinic dropdown categories on first boot
	if err := services.SeedDefaultChoices(db.DB); err != nil {
		log.Fatalf("Failed to seed choice sets: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public routes (no authentication required)
	e.POST("/api/auth/login", handlers.LoginHandler, middleware.LoginRateLimiter.Middleware())
	e.POST("/api/auth/logout", handlers.LogoutHandler)

	// Protected routes
	api := e.Group("/api")
	api.Use(middleware.RequireAuth())
	api.Use(middleware.APIRateLimiter.Middleware())
	{
		api.GET("/auth/me", handlers.GetCurrentUserHandler)

		// Trapper profiles
		api.GET("/trappers", handlers.ListTrappersHandler)
		api.GET("/trappers/:id", handlers.GetTrapperHandler)
		api.POST("/trappers", handlers.CreateTrapperHandler)
		api.PUT("/trappers/:id", handlers.UpdateTrapperHandler)
		api.POST("/trappers/:id/signature", handlers.UploadTrapperSignatureHandler)

		// Clinic records
		api.GET("/records", handlers.ListRecordsHandler)
		api.GET("/records/:id", handlers.GetRecordHandler)
		api.POST("/records", handlers.CreateRecordHandler)
		api.PUT("/records/:id", handlers.UpdateRecordHandler)
		api.POST("/records/evaluate-tip", handlers.EvaluateTIPHandler)
		api.POST("/records/:id/regenerate-tip-form", handlers.RegenerateTIPFormHandler)

		// Batch import
		api.POST("/records/import", handlers.ImportRecordsHandler, middleware.ImportRateLimiter.Middleware())
		api.GET("/records/import/template", handlers.GetImportTemplateHandler)

		// Dosage chart (reads)
		api.GET("/dosage-chart", handlers.GetDosageChartHandler)
		api.GET("/dosage-chart/lookup", handlers.LookupDosageHandler)

		// Dropdown option sets (reads)
		api.GET("/choices", handlers.ListChoicesHandler)
		api.GET("/choices/:key", handlers.GetChoiceOptionsHandler)

		// Admin-only routes
		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.DELETE("/trappers/:id", handlers.DeleteTrapperHandler)
			admin.DELETE("/records/:id", handlers.DeleteRecordHandler)

			admin.POST("/dosage-chart", handlers.AddDosageChartRowHandler)
			admin.PUT("/dosage-chart/:id", handlers.UpdateDosageChartRowHandler)
			admin.DELETE("/dosage-chart/:id", handlers.DeleteDosageChartRowHandler)

			admin.POST("/choices/:key/options", handlers.AddChoiceOptionHandler)
			admin.PUT("/choices/options/:id", handlers.UpdateChoiceOptionHandler)
			admin.PUT("/choices/:key/reorder", handlers.ReorderChoiceOptionsHandler)

			admin.GET("/accounts", handlers.ListAccountsHandler)
			admin.POST("/accounts", handlers.ProvisionAccountHandler)
			admin.DELETE("/accounts/:id", handlers.DeactivateAccountHandler)
		}
	}

	// Start background cleanup jobs (runs every hour)
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := services.CleanupExpiredSessions(db.DB); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
