package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"good-morning-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, google_id, username, email, unique_code, partner_id,
	notifications_enabled, picture, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.GoogleID, user.Username, user.Email, user.UniqueCode, user.PartnerID,
		user.NotificationsEnabled, user.Picture, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByGoogleID retrieves a user by their Google account ID
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, "google_id", googleID)
}

// GetByCode retrieves a user by pairing code
func (r *UserRepository) GetByCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, "unique_code", code)
}

func (r *UserRepository) getOne(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.GoogleID, &user.Username, &user.Email, &user.UniqueCode, &user.PartnerID,
		&user.NotificationsEnabled, &user.Picture, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CodeExists checks if a code already exists
func (r *UserRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE unique_code = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// UpdateUsername changes the display name
func (r *UserRepository) UpdateUsername(ctx context.Context, userID, username string) error {
	return r.updateOne(ctx, `UPDATE users SET username = $1, updated_at = $2 WHERE id = $3`, username, userID)
}

// SetNotificationsEnabled toggles push notifications for a user
func (r *UserRepository) SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.updateOne(ctx, `UPDATE users SET notifications_enabled = $1, updated_at = $2 WHERE id = $3`, enabled, userID)
}

func (r *UserRepository) updateOne(ctx context.Context, query string, value any, userID string) error {
	result, err := r.db.Exec(ctx, query, value, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}
