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

	"tumaini/config"
	"tumaini/internal/database"
	"tumaini/internal/jobs"
	"tumaini/internal/repository"
	"tumaini/internal/router"
	"tumaini/internal/store"
	"tumaini/internal/ws"
	"tumaini/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, &cfg.Admin)
	database.SeedCoupons(db)

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Printf("[UPLOAD] Cloudinary disabled: set CLOUDINARY_CLOUD_NAME to enable uploads")
	}

	// Carts live in Redis; fall back to process memory when Redis is absent
	// (development only, carts are lost on restart).
	var kv store.KV
	redisKV, err := store.NewRedisKV(context.Background(), cfg.Redis.URL)
	if err != nil {
		log.Printf("[STORE] redis unavailable (%v), using in-memory cart store", err)
		kv = store.NewMemoryKV()
	} else {
		kv = redisKV
		defer redisKV.Close()
	}

	feed := ws.NewFeed()

	donationRepo := repository.NewDonationRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	scheduler := jobs.NewScheduler(donationRepo, orderRepo, cfg.Payment.PaymentExpiry)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("jobs: %v", err)
	}
	defer scheduler.Stop()

	engine := router.Setup(cfg, db, cloud, kv, feed)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
