package services

import (
	"context"
	"time"

	"good-morning-backend/internal/models"
	"good-morning-backend/internal/spotify"
)

// UserStore persists identities and the pairing relation
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error
	Pair(ctx context.Context, userID, partnerID string) error
}

// NoticeStore persists notices. Create must reject a second notice for the
// same sender and period with repository.ErrDuplicate.
type NoticeStore interface {
	Create(ctx context.Context, n *models.Notice) error
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	GetActiveForRecipient(ctx context.Context, recipientID string, now time.Time) (*models.Notice, error)
	GetBySenderPeriod(ctx context.Context, senderID, periodKey string) (*models.Notice, error)
	Update(ctx context.Context, n *models.Notice, now time.Time) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Notice, int, error)
}

// PushSubscriptionStore persists the single push endpoint per user
type PushSubscriptionStore interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	GetByUserID(ctx context.Context, userID string) (*models.PushSubscription, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// BlobStore writes public objects
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// TrackLookup resolves Spotify track metadata
type TrackLookup interface {
	Track(ctx context.Context, trackID string) (*spotify.TrackDetails, error)
}

// NoticeNotifier is told about notice changes after they are stored.
// Implementations must not block the caller.
type NoticeNotifier interface {
	NoticeCreated(sender *models.User, notice *models.Notice)
	NoticeEdited(notice *models.Notice)
}

// Realtime delivers events to connected clients
type Realtime interface {
	IsOnline(userID string) bool
	SendToUser(userID string, message WSMessage) error
}
