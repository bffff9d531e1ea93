package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Sadakat programı
	LoyaltyConversionRate float64 // 1 puanın TL karşılığı (indirim)
	LoyaltyPointThreshold float64 // kaç TL ödemeye 1 puan kazanılır

	// Masa otomatik boşaltma penceresi (dakika)
	TableReleaseMinutes int

	// Düşük stok e-postaları için SMTP
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func Load() *Config {
	// .env varsa yükle, yoksa sessizce geç (production'da env'ler dışarıdan gelir)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:           getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=lokanta port=5432 sslmode=disable"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		CORSOrigins:           getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LoyaltyConversionRate: getEnvFloat("LOYALTY_CONVERSION_RATE", 10),
		LoyaltyPointThreshold: getEnvFloat("LOYALTY_POINT_THRESHOLD", 100),
		TableReleaseMinutes:   getEnvInt("TABLE_RELEASE_MINUTES", 20),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPass:              getEnv("SMTP_PASS", ""),
		SMTPFrom:              getEnv("SMTP_FROM", "no-reply@lokanta.local"),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.SMTPHost == "" {
		log.Println("[WARN] SMTP_HOST tanımlı değil, düşük stok e-postaları gönderilmeyecek.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s sayı olarak çözümlenemedi, varsayılan kullanılıyor: %d", key, def)
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[WARN] %s sayı olarak çözümlenemedi, varsayılan kullanılıyor: %.2f", key, def)
	}
	return def
}
