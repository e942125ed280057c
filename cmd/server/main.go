package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pdvbalcao/backend/internal/activation"
	"pdvbalcao/backend/internal/cache"
	"pdvbalcao/backend/internal/config"
	"pdvbalcao/backend/internal/httpapi"
	"pdvbalcao/backend/internal/imagestore"
	"pdvbalcao/backend/internal/receipt"
	"pdvbalcao/backend/internal/service"
	"pdvbalcao/backend/internal/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env: %v", err)
	}

	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database %s: %v", cfg.DatabasePath, err)
	}
	closers = append(closers, repo.Close)
	if err := repo.Initialize(ctx); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Printf("repository: sqlite (%s)", cfg.DatabasePath)

	barcodeCache := cache.ProductCache(cache.NoopProductCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisProductCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			barcodeCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	images, err := imagestore.New(cfg.ImageDir)
	if err != nil {
		log.Fatalf("image storage: %v", err)
	}
	receipts, err := receipt.NewFormatter(cfg.ShopName, cfg.ReceiptDir)
	if err != nil {
		log.Fatalf("receipt storage: %v", err)
	}

	svc := service.New(repo, receipts, images, barcodeCache, time.Duration(cfg.BarcodeCacheTTLSeconds)*time.Second)
	sessions := httpapi.NewSessionManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, activation.New(cfg.LicenseSecret))
	api := httpapi.New(svc, sessions, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.LicenseSecret) < 16 {
		return fmt.Errorf("LICENSE_SECRET must be set and at least 16 characters")
	}
	return nil
}
