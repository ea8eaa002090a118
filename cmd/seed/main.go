package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"bookingpay/internal/config"
	"bookingpay/internal/database"
	"bookingpay/internal/domain"
	"bookingpay/internal/repository"
)

// Seeds the demo accounts: a regular user and an operator.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	users := repository.NewUserRepository(db)
	ctx := context.Background()

	seed := []struct {
		email    string
		password string
		role     string
	}{
		{"user@example.com", "user-password", domain.RoleUser},
		{"admin@example.com", "admin-password", domain.RoleAdmin},
	}

	for _, s := range seed {
		if _, err := users.GetByEmail(ctx, s.email); err == nil {
			log.Printf("level=info msg=user exists, skipping email=%s", s.email)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}
		u := &domain.User{Email: s.email, PasswordHash: string(hash), Role: s.role}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed %s failed: %v", s.email, err)
		}
		log.Printf("level=info msg=user seeded email=%s role=%s", s.email, s.role)
	}
}
