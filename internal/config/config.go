package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config carries everything read from the environment at boot.
type Config struct {
	Port      string
	JWTSecret string

	PhonePe PhonePeConfig
	SMTP    SMTPConfig
	Company CompanyConfig
}

type PhonePeConfig struct {
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	APIURL      string
	RedirectURL string
	CallbackURL string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CompanyConfig is the seller identity printed on invoices and PDF exports.
type CompanyConfig struct {
	Name    string
	Address string
	City    string
	Phone   string
	Email   string
	GST     string
	UPIID   string
}

func Load() *Config {
	return &Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: getenv("JWT_SECRET", "change-me-in-production"),
		PhonePe: PhonePeConfig{
			MerchantID:  os.Getenv("PHONEPE_MERCHANT_ID"),
			SaltKey:     os.Getenv("PHONEPE_SALT_KEY"),
			SaltIndex:   getenv("PHONEPE_SALT_INDEX", "1"),
			APIURL:      getenv("PHONEPE_API_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"),
			RedirectURL: getenv("PHONEPE_REDIRECT_URL", "http://localhost:3000/payment/success"),
			CallbackURL: os.Getenv("PHONEPE_CALLBACK_URL"),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", "localhost"),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "billing@localhost"),
		},
		Company: CompanyConfig{
			Name:    getenv("COMPANY_NAME", "Your Company Name"),
			Address: getenv("COMPANY_ADDRESS", "Company Address Line 1"),
			City:    getenv("COMPANY_CITY", "City, State, PIN"),
			Phone:   getenv("COMPANY_PHONE", "+91 1234567890"),
			Email:   getenv("COMPANY_EMAIL", "info@company.com"),
			GST:     getenv("COMPANY_GST", "GST: 12ABCDE1234F1Z5"),
			UPIID:   getenv("UPI_ID", "company@upi"),
		},
	}
}

// InitDB opens the postgres connection from DB_* env vars.
func InitDB() *gorm.DB {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getenv("DB_HOST", "localhost"),
		getenv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getenv("DB_NAME", "billing"),
		getenv("DB_PORT", "5432"),
		getenv("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
