package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"anoa.com/ecotrack/internal/bootstrap"
	"anoa.com/ecotrack/internal/config"
	"anoa.com/ecotrack/internal/engine"
	badgeRepo "anoa.com/ecotrack/internal/modules/badge/repository"
	badgeService "anoa.com/ecotrack/internal/modules/badge/service"
	"anoa.com/ecotrack/internal/server"
	"anoa.com/ecotrack/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	badges := badgeService.NewBadgeService(badgeRepo.NewBadgeRepository(db), engine.DefaultBadgeRules)
	if err := badges.SeedDefinitions(ctx); err != nil {
		log.Fatalf("failed to seed badge definitions: %v", err)
	}

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
		if err := bootstrap.SeedDemoData(db); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
	}

	redisClient := database.ConnectRedis(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
	log.Println("👋 Server stopped")
}
