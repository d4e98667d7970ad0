package main

import (
	"database/sql"
	"flag"
	"log"

	"golang.org/x/crypto/bcrypt"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/database"
	"hookgate/internal/platform/models"
	"hookgate/internal/platform/repositories"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	adminEmail := flag.String("seed-admin-email", "", "Seed an admin user with this email")
	adminPassword := flag.String("seed-admin-password", "", "Password for the seeded admin user")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch *direction {
	case "up":
		if err := migrateUp(db); err != nil {
			log.Fatal(err)
		}
		log.Println("Migration up complete")
	case "down":
		if err := migrateDown(db); err != nil {
			log.Fatal(err)
		}
		log.Println("Migration down complete")
	default:
		log.Fatalf("Unknown direction: %s", *direction)
	}

	if *adminEmail != "" {
		if *adminPassword == "" {
			log.Fatal("--seed-admin-password required with --seed-admin-email")
		}
		if err := seedAdmin(db, *adminEmail, *adminPassword); err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
		log.Printf("Seeded admin user %s", *adminEmail)
	}
}

func migrateUp(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS endpoints (
		id TEXT PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		name TEXT,
		secret TEXT NOT NULL,
		previous_secret TEXT,
		secret_rotated_at INTEGER,
		tolerance_seconds INTEGER NOT NULL DEFAULT -1,
		status TEXT NOT NULL DEFAULT 'active',
		delivered_count INTEGER NOT NULL DEFAULT 0,
		rejected_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT NOT NULL REFERENCES endpoints(id) ON DELETE CASCADE,
		event_id TEXT,
		event_type TEXT,
		api_version TEXT,
		event_created INTEGER,
		payload TEXT NOT NULL,
		sig_header TEXT NOT NULL,
		sig_timestamp INTEGER,
		received_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_endpoint ON deliveries(endpoint_id, received_at);

	CREATE TABLE IF NOT EXISTS rejections (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT NOT NULL REFERENCES endpoints(id) ON DELETE CASCADE,
		reason TEXT NOT NULL,
		sig_header TEXT,
		received_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rejections_endpoint ON rejections(endpoint_id, received_at);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT,
		role TEXT NOT NULL DEFAULT 'viewer',
		last_login_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT,
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT,
		scopes TEXT,
		last_used_at INTEGER,
		expires_at INTEGER,
		created_at INTEGER NOT NULL,
		revoked_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		action TEXT NOT NULL,
		resource_type TEXT,
		resource_id TEXT,
		metadata TEXT,
		created_at INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

func migrateDown(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS audit_logs;
		DROP TABLE IF EXISTS api_keys;
		DROP TABLE IF EXISTS users;
		DROP TABLE IF EXISTS rejections;
		DROP TABLE IF EXISTS deliveries;
		DROP TABLE IF EXISTS endpoints;
	`)
	return err
}

func seedAdmin(db *sql.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	repo := repositories.NewUserRepository(db)
	existing, err := repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("Admin user %s already exists, skipping", email)
		return nil
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         "admin",
	}
	return repo.Create(user)
}
