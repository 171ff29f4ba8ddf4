package models

import "time"

// User represents an identity created on first Google login
type User struct {
	ID                   string    `json:"id"`
	GoogleID             string    `json:"googleId"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	UniqueCode           string    `json:"uniqueCode"`
	PartnerID            *string   `json:"pairedUserId"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	Picture              *string   `json:"picture,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// HasPartner reports whether the user is paired
func (u *User) HasPartner() bool {
	return u.PartnerID != nil && *u.PartnerID != ""
}

// Push platforms
const (
	PlatformWeb  = "web"
	PlatformAPNs = "apns"
)

// PushSubscription is the single push endpoint registered for a user
type PushSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Platform  string    `json:"platform"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh,omitempty"`
	Auth      string    `json:"auth,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notice is the daily message a sender shares with their partner
type Notice struct {
	ID              string     `json:"id"`
	SenderID        string     `json:"senderId"`
	RecipientID     string     `json:"recipientId"`
	Message         *string    `json:"message,omitempty"`
	PhotoURL        *string    `json:"photoUrl,omitempty"`
	SongURL         *string    `json:"songUrl,omitempty"`
	SongTitle       *string    `json:"songTitle,omitempty"`
	SongArtist      *string    `json:"songArtist,omitempty"`
	SongAlbumCover  *string    `json:"songAlbumCover,omitempty"`
	SongExplanation *string    `json:"songExplanation,omitempty"`
	ForegroundColor string     `json:"foregroundColor"`
	BackgroundColor string     `json:"backgroundColor"`
	SentAt          time.Time  `json:"sentAt"`
	EditedAt        *time.Time `json:"editedAt,omitempty"`
	ResetAt         time.Time  `json:"resetAt"`
	PeriodKey       string     `json:"-"`
}

// ActiveAt reports whether the notice is still visible at t
func (n *Notice) ActiveAt(t time.Time) bool {
	return t.Before(n.ResetAt)
}
