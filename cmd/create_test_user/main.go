package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/db"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/repository"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	username := os.Getenv("TEST_USERNAME")
	if username == "" {
		username = "testuser"
	}
	password := os.Getenv("TEST_PASSWORD")
	if password == "" {
		password = "testpass"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u := &domain.User{Username: username, PasswordHash: string(hash)}
	if err := repo.Create(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrDuplicateUsername) {
			log.Fatalf("create user failed: %v", err)
		}
		u, err = repo.GetByUsername(ctx, username)
		if err != nil {
			log.Fatalf("fetch existing user: %v", err)
		}
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		log.Printf("user created id=%d\n", u.ID)
	}

	// initialize JWT and print token
	service.InitJWT()
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
