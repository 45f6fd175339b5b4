package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"soundwave/model"

	"github.com/go-sql-driver/mysql"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByProvider(provider, providerID string) (*model.User, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, provider, provider_id, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var provider, providerID sql.NullString
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &provider, &providerID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, err
	}
	user.Provider = provider.String
	user.ProviderID = providerID.String
	return user, nil
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash, provider, provider_id) VALUES (?, ?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	// Local accounts store NULL provider columns so the unique federated
	// identity constraint never applies to them.
	var provider, providerID interface{}
	if user.Provider != "" {
		provider = user.Provider
		providerID = user.ProviderID
	}

	res, err := stmt.Exec(user.Username, user.Email, user.PasswordHash, provider, providerID)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 { // duplicate entry
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	user, err := scanUser(r.db.QueryRow(query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	user, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for email %s: %w", email, err)
	}
	return user, nil
}

// GetUserByProvider retrieves a user by their federated identity.
func (r *mysqlUserRepository) GetUserByProvider(provider, providerID string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE provider = ? AND provider_id = ?"
	user, err := scanUser(r.db.QueryRow(query, provider, providerID))
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for provider %s identity: %w", provider, err)
	}
	return user, nil
}
