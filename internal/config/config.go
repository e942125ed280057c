package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DataDir                string
	DatabasePath           string
	ImageDir               string
	ReceiptDir             string
	ShopName               string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	BarcodeCacheTTLSeconds int
	LicenseSecret          string
	AuthSecret             string
	AccessTokenTTLMinutes  int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("BARCODE_CACHE_TTL_SECONDS", "300"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 300
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "720"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 720
	}

	dataDir := getEnv("DATA_DIR", "data")

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DataDir:                dataDir,
		DatabasePath:           getEnv("DATABASE_PATH", filepath.Join(dataDir, "pdv.db")),
		ImageDir:               getEnv("IMAGE_DIR", filepath.Join(dataDir, "images")),
		ReceiptDir:             getEnv("RECEIPT_DIR", filepath.Join(dataDir, "receipts")),
		ShopName:               getEnv("SHOP_NAME", "PDV Balcao"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		BarcodeCacheTTLSeconds: cacheTTL,
		LicenseSecret:          strings.TrimSpace(os.Getenv("LICENSE_SECRET")),
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
