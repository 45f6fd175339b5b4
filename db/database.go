package db

import (
	"database/sql"
	"fmt"
	"log"

	"soundwave/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Keep the handle on ping failure: the driver reconnects on demand, so
	// requests start succeeding as soon as the database becomes reachable.
	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// CloseDB closes the database connection if one was established.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createSongsTable(); err != nil {
		return err
	}
	if err := createPlaylistsTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		provider VARCHAR(32) NULL DEFAULT NULL,
		provider_id VARCHAR(128) NULL DEFAULT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		-- local accounts store NULL here, so only federated identities hit
		-- the uniqueness check
		CONSTRAINT uq_provider_identity UNIQUE (provider, provider_id)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255),
		album VARCHAR(255),
		duration DOUBLE,
		cover_art VARCHAR(767),
		file_name VARCHAR(767) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	log.Println("Songs table initialized successfully (or already exists).")
	return nil
}

func createPlaylistsTable() error {
	// Song ids live in a JSON column so order and duplicates survive as-is.
	query := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		songs JSON NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create playlists table: %w", err)
	}
	log.Println("Playlists table initialized successfully (or already exists).")
	return nil
}
