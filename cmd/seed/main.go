package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/incluiaqui/incluiaqui-server/config"
	"github.com/incluiaqui/incluiaqui-server/pkg/hasher"
)

// Seeds a local admin account for development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	username := "admin"
	email := "admin@incluiaqui.local"
	password := "password123"

	hash, err := hasher.NewBcrypt(cfg.BcryptCost).Hash(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id uuid.UUID
	err = db.QueryRow(`
		INSERT INTO users (id, username, email, hashed_password, role)
		VALUES ($1, $2, $3, $4, 'admin')
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, uuid.New(), username, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", id, email, password)
}
