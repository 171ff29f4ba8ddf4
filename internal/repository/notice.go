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

const noticeColumns = `id, sender_id, recipient_id, message, photo_url, song_url, song_title,
	song_artist, song_album_cover, song_explanation, foreground_color, background_color,
	sent_at, edited_at, reset_at, period_key`

// NoticeRepository handles database operations for notices
type NoticeRepository struct {
	db *pgxpool.Pool
}

// NewNoticeRepository creates a new notice repository
func NewNoticeRepository(db *pgxpool.Pool) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create inserts a notice. The (sender_id, period_key) unique constraint makes
// a second notice in the same period fail with ErrDuplicate.
func (r *NoticeRepository) Create(ctx context.Context, n *models.Notice) error {
	query := `
		INSERT INTO notices (` + noticeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID, n.SenderID, n.RecipientID, n.Message, n.PhotoURL, n.SongURL, n.SongTitle,
		n.SongArtist, n.SongAlbumCover, n.SongExplanation, n.ForegroundColor, n.BackgroundColor,
		n.SentAt, n.EditedAt, n.ResetAt, n.PeriodKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create notice: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create notice: %w", err)
	}
	return nil
}

// GetByID retrieves a notice by ID
func (r *NoticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	query := `SELECT ` + noticeColumns + ` FROM notices WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetActiveForRecipient retrieves the latest notice addressed to recipientID
// whose reset time is after now
func (r *NoticeRepository) GetActiveForRecipient(ctx context.Context, recipientID string, now time.Time) (*models.Notice, error) {
	query := `
		SELECT ` + noticeColumns + `
		FROM notices
		WHERE recipient_id = $1 AND reset_at > $2
		ORDER BY sent_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, recipientID, now)
}

// GetBySenderPeriod retrieves the notice a sender wrote in the given period
func (r *NoticeRepository) GetBySenderPeriod(ctx context.Context, senderID, periodKey string) (*models.Notice, error) {
	query := `SELECT ` + noticeColumns + ` FROM notices WHERE sender_id = $1 AND period_key = $2`
	return r.getOne(ctx, query, senderID, periodKey)
}

func (r *NoticeRepository) getOne(ctx context.Context, query string, args ...any) (*models.Notice, error) {
	n, err := scanNotice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notice not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notice: %w", err)
	}
	return n, nil
}

func scanNotice(row pgx.Row) (*models.Notice, error) {
	var n models.Notice
	err := row.Scan(
		&n.ID, &n.SenderID, &n.RecipientID, &n.Message, &n.PhotoURL, &n.SongURL, &n.SongTitle,
		&n.SongArtist, &n.SongAlbumCover, &n.SongExplanation, &n.ForegroundColor, &n.BackgroundColor,
		&n.SentAt, &n.EditedAt, &n.ResetAt, &n.PeriodKey,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Update writes the editable content of a notice. The write only applies while
// reset_at is after now; a notice that has already reset yields ErrExpired.
func (r *NoticeRepository) Update(ctx context.Context, n *models.Notice, now time.Time) error {
	query := `
		UPDATE notices
		SET message = $1, photo_url = $2, song_url = $3, song_title = $4, song_artist = $5,
		    song_album_cover = $6, song_explanation = $7, foreground_color = $8,
		    background_color = $9, edited_at = $10
		WHERE id = $11 AND reset_at > $12
	`
	result, err := r.db.Exec(ctx, query,
		n.Message, n.PhotoURL, n.SongURL, n.SongTitle, n.SongArtist,
		n.SongAlbumCover, n.SongExplanation, n.ForegroundColor,
		n.BackgroundColor, n.EditedAt, n.ID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update notice: %w", err)
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM notices WHERE id = $1)`, n.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check notice: %w", err)
	}
	if exists {
		return fmt.Errorf("notice already reset: %w", ErrExpired)
	}
	return fmt.Errorf("notice not found: %w", ErrNotFound)
}

// ListForUser retrieves notices sent or received by a user with pagination
func (r *NoticeRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Notice, int, error) {
	// Get total count
	countQuery := `SELECT COUNT(*) FROM notices WHERE sender_id = $1 OR recipient_id = $1`
	var total int
	err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notices: %w", err)
	}

	query := `
		SELECT ` + noticeColumns + `
		FROM notices
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get notices: %w", err)
	}
	defer rows.Close()

	var notices []*models.Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notice: %w", err)
		}
		notices = append(notices, n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notices: %w", err)
	}

	return notices, total, nil
}
