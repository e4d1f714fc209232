package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/config"
	"github.com/iliyamo/legacy-vault/internal/database"
	"github.com/iliyamo/legacy-vault/internal/handler"
	"github.com/iliyamo/legacy-vault/internal/queue"
	"github.com/iliyamo/legacy-vault/internal/repository"
	"github.com/iliyamo/legacy-vault/internal/router"
	"github.com/iliyamo/legacy-vault/internal/storage"
	"github.com/iliyamo/legacy-vault/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Nil when Redis is unreachable; rate limiting then degrades to no-op.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	beneficiaries := repository.NewBeneficiaryRepo(db)
	items := repository.NewItemRepo(db)
	tokens := repository.NewTokenRepo(db)
	resolver := auth.NewResolver(users, beneficiaries, utils.VerifyPassword)
	store := storage.NewFileStore(cfg.UploadDir)

	authHandler := handler.NewAuthHandler(cfg, users, beneficiaries, tokens, resolver)
	vaultHandler := handler.NewVaultHandler(items, beneficiaries, users, store, cfg.BcryptCost)

	e := echo.New()
	e.Validator = handler.NewValidator()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, config.LoadRateLimitConfig(), rdb, cfg.JWTSecret)
	router.RegisterVault(e, vaultHandler, cfg.JWTSecret)

	// Background consumer for release events; reconnects on its own.
	go func() {
		if err := queue.StartReleaseConsumer(); err != nil {
			log.Printf("release consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
