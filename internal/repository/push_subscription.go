package repository

import (
	"context"
	"errors"
	"fmt"

	"good-morning-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushSubscriptionRepository handles database operations for push subscriptions
type PushSubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewPushSubscriptionRepository creates a new push subscription repository
func NewPushSubscriptionRepository(db *pgxpool.Pool) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert stores sub as the user's only subscription, replacing any previous one
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_id, platform, endpoint, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id, platform = EXCLUDED.platform, endpoint = EXCLUDED.endpoint,
		    p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, created_at = EXCLUDED.created_at
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.UserID, sub.Platform, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

// GetByUserID retrieves the subscription for a user
func (r *PushSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.PushSubscription, error) {
	query := `
		SELECT id, user_id, platform, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		WHERE user_id = $1
	`
	var sub models.PushSubscription
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.Platform, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("push subscription not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get push subscription: %w", err)
	}
	return &sub, nil
}

// DeleteByUserID removes a user's subscription. Deleting a missing one is not an error.
func (r *PushSubscriptionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
