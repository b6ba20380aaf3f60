package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/Barklim/bio/config"
	"github.com/Barklim/bio/pkg/helpers"
)

// Seeds an admin account for local development. Idempotent: re-running
// updates the existing row instead of failing on the unique index.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@example.com"
	password := "Admin123!"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO users (email, first_name, last_name, password_hash, role, is_active, email_verified, email_verified_at)
		VALUES ($1, $2, $3, $4, 'admin', true, true, now())
		ON CONFLICT ((lower(email))) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
		RETURNING id
	`, email, "Admin", "User", hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	fmt.Printf("seeded admin user: id=%d email=%s password=%s\n", id, email, password)
}
