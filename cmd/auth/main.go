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

	logCloser, err := core.SetupLogging(cfg, "auth.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	users := core.NewPgUserRepository(db)
	errorLog := core.NewPgErrorLogRepository(db)
	issuer := core.NewTokenIssuer(cfg.TokenSecret, users)
	accounts := core.NewRepositoryAccountService(users, issuer)

	if err := core.BootstrapAdmin(ctx, users, cfg); err != nil {
		// Degraded but running: logins still work for existing accounts.
		log.Printf("bootstrap admin failed: %v", err)
	}

	router := core.NewAuthRouter(cfg, accounts, errorLog)

	addr := fmt.Sprintf(":%s", cfg.AuthPort)
	log.Printf("starting auth server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
