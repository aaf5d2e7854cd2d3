package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"voicechat/internal/auth"
	"voicechat/internal/config"
	"voicechat/internal/domain"
	"voicechat/internal/domain/services"
	"voicechat/internal/repository"
	authService "voicechat/internal/service/auth"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't create the demo user")
	name := flag.String("name", "Demo User", "Demo user display name")
	email := flag.String("email", "demo@example.com", "Demo user email")
	password := flag.String("password", "demo-password", "Demo user password (8-72 characters)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables) in production environment")
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := store.Reset(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		return
	}

	// The demo user goes through the same validation and hashing as /api/auth/register
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "seed-only-secret"
	}
	tokens, err := auth.NewHMACTokenManager(secret, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to create token manager: %v", err)
	}
	svc := authService.NewService(store.Users, tokens, auth.NewBcryptHasher(auth.DefaultBcryptCost), logger)

	session, err := svc.Register(ctx, &services.RegisterRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			log.Printf("ℹ️  Demo user %s already exists, nothing to do", *email)
			return
		}
		log.Printf("❌ Failed to create demo user: %v", err)
		os.Exit(1)
	}

	log.Printf("✅ Demo user created: %s (%s)", session.User.Email, session.User.ID)
	log.Printf("🔑 Session token (valid until %s): %s", session.ExpiresAt.Format(time.RFC3339), session.Token)
}
