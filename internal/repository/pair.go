package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Pair links two users to each other in a single transaction. Both rows are
// locked in id order so concurrent pairings cannot deadlock, and both partner
// references are written or neither is.
func (r *UserRepository) Pair(ctx context.Context, userID, partnerID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin pair transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, partner_id
		FROM users
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, []string{userID, partnerID})
	if err != nil {
		return fmt.Errorf("failed to lock users for pairing: %w", err)
	}

	found := 0
	paired := false
	for rows.Next() {
		var id string
		var current *string
		if err := rows.Scan(&id, &current); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan user for pairing: %w", err)
		}
		found++
		if current != nil {
			paired = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating users for pairing: %w", err)
	}

	if found != 2 {
		return fmt.Errorf("pairing user missing: %w", ErrNotFound)
	}
	if paired {
		return ErrAlreadyPaired
	}

	result, err := tx.Exec(ctx, `
		UPDATE users
		SET partner_id = CASE WHEN id = $1 THEN $2 ELSE $1 END,
		    updated_at = $3
		WHERE id IN ($1, $2) AND partner_id IS NULL
	`, userID, partnerID, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyPaired
		}
		return fmt.Errorf("failed to pair users: %w", err)
	}
	if result.RowsAffected() != 2 {
		return ErrAlreadyPaired
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit pairing: %w", err)
	}
	return nil
}
