package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"catalog-api/core"
)

func main() {
	_ = godotenv.Load()

	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	users := core.NewPgUserRepository(db)
	catalog := core.NewPgCatalogRepository(db)
	requests := core.NewPgRequestLogRepository(db)
	errorLog := core.NewPgErrorLogRepository(db)

	// Seed failures degrade the catalog, they never stop the server.
	core.SeedCatalog(ctx, catalog, cfg.SeedURL)

	activity := core.NewActivityLogger(users, requests)
	defer activity.Wait()

	router := core.NewAPIRouter(cfg, core.APIDeps{
		Users:    users,
		Catalog:  catalog,
		Requests: requests,
		ErrorLog: errorLog,
		Engine:   core.NewAnalyticsEngine(users, requests, errorLog),
		Cache:    core.NewReportCache(redisClient, cfg.ReportCacheTTL()),
		Activity: activity,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
