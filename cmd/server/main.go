package main

import (
	"os"
	"time"

	"billing-backend/internal/config"
	"billing-backend/internal/models"
	"billing-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on system env")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	db := config.InitDB()

	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.ActivityLog{},
		&models.NotificationSettings{},
	); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-VERIFY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	sched := routes.RegisterRoutes(r, db, cfg)
	sched.Start()
	defer sched.Stop()

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
