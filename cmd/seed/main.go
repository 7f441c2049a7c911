// seed inserts development sample data for local testing.
// Idempotent: skips user inserts if the dev user (dev@example.com) already
// exists; roles are created only when missing.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"identity-store/internal/config"
	"identity-store/internal/db"
	roledomain "identity-store/internal/role/domain"
	rolerepo "identity-store/internal/role/repository"
	"identity-store/internal/security"
	"identity-store/internal/store"
	userdomain "identity-store/internal/user/domain"
)

const (
	devUserEmail = "dev@example.com"
	devUserName  = "dev"
	devPassword  = "password123"
	adminEmail   = "admin@example.com"
	adminName    = "admin"
)

var roleNames = []string{"admin", "member"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	roles := rolerepo.NewPostgresRepository(conn)
	for _, name := range roleNames {
		id, err := roles.GetIDByName(ctx, name)
		if err != nil {
			log.Fatalf("role check: %v", err)
		}
		if id != "" {
			continue
		}
		if err := roles.Create(ctx, &roledomain.Role{ID: uuid.NewString(), Name: name}); err != nil {
			log.Fatalf("create role %s: %v", name, err)
		}
	}

	s := store.New(conn)
	existing, err := s.FindByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	if err := s.CreateInRole(ctx, seedUser(devUserName, devUserEmail, passwordHash, now), "member"); err != nil {
		log.Fatalf("create dev user: %v", err)
	}
	if err := s.CreateInRole(ctx, seedUser(adminName, adminEmail, passwordHash, now), "admin"); err != nil {
		log.Fatalf("create admin user: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Admin login: %s / %s\n", adminEmail, devPassword)
}

func seedUser(userName, email, passwordHash string, now time.Time) *userdomain.User {
	stamp, err := security.NewSecurityStamp()
	if err != nil {
		log.Fatalf("security stamp: %v", err)
	}
	return &userdomain.User{
		UserName:       userName,
		Email:          email,
		PasswordHash:   passwordHash,
		SecurityStamp:  stamp,
		IsConfirmed:    true,
		CreatedAt:      now,
		LockoutEnabled: true,
	}
}
