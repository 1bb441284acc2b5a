package main

import (
	"PhotoReveal/config"
	_ "PhotoReveal/config/swagger"
	"PhotoReveal/middleware"
	"PhotoReveal/models/postgres"
	"PhotoReveal/routes"
	"PhotoReveal/services/coordinator"
	"PhotoReveal/services/redis"
	"PhotoReveal/services/socket_io"
	"PhotoReveal/services/store"
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// @title PhotoReveal API
// @version 1.0
// @description Gin-Gonic server coordinating photo-reveal sessions
// @BasePath /
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	settings := config.Load()
	postgres.CodeLength = settings.CodeLength

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
			// Continue execution even if migration fails
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.ConnectRedis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redis.CloseRedis(redisClient)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	coord := coordinator.New(store.NewGormStore(gormDB), redisClient, settings, logger)
	coord.Registry().StartSweep(context.Background(), settings.SweepInterval)

	r := gin.Default()

	middleware.SetUpMiddleware(r, settings.CorsOrigin)
	routes.SetupRoutes(r, gormDB, coord.Registry())

	sio := &socket_io.MySocketServer{}
	sio.Start(r, coord, settings.CorsOrigin)

	port := settings.Port
	if os.Getenv("USE_HTTPS") == "true" {
		certFile := os.Getenv("TLS_CERT_FILE")
		keyFile := os.Getenv("TLS_KEY_FILE")
		if err := r.RunTLS(":"+port, certFile, keyFile); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	} else {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
}
