// Package testutil provides in-memory stores that mirror the constraints the
// Postgres schema enforces, for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"good-morning-backend/internal/models"
	"good-morning-backend/internal/push"
	"good-morning-backend/internal/repository"
)

// UserStore is an in-memory services.UserStore
type UserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

// Add inserts a user without uniqueness checks
func (s *UserStore) Add(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
}

// Create inserts a user, rejecting a reused ID, Google ID or pairing code with repository.ErrDuplicate
func (s *UserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.ID == u.ID || existing.GoogleID == u.GoogleID || existing.UniqueCode == u.UniqueCode {
			return repository.ErrDuplicate
		}
	}
	s.users[u.ID] = *u
	return nil
}

// GetByID returns a copy of the user or repository.ErrNotFound
func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// GetByGoogleID looks a user up by Google account ID
func (s *UserStore) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.GoogleID == googleID })
}

// GetByCode looks a user up by pairing code
func (s *UserStore) GetByCode(_ context.Context, code string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.UniqueCode == code })
}

func (s *UserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// CodeExists reports whether a pairing code is taken
func (s *UserStore) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.GetByCode(ctx, code)
	return err == nil, nil
}

// UpdateUsername sets the display name
func (s *UserStore) UpdateUsername(_ context.Context, userID, username string) error {
	return s.update(userID, func(u *models.User) { u.Username = username })
}

// SetNotificationsEnabled sets the notification flag
func (s *UserStore) SetNotificationsEnabled(_ context.Context, userID string, enabled bool) error {
	return s.update(userID, func(u *models.User) { u.NotificationsEnabled = enabled })
}

func (s *UserStore) update(userID string, apply func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	apply(&u)
	u.UpdatedAt = time.Now()
	s.users[userID] = u
	return nil
}

// Pair links both users atomically, like the row-locking transaction
func (s *UserStore) Pair(_ context.Context, userID, partnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, okA := s.users[userID]
	b, okB := s.users[partnerID]
	if !okA || !okB {
		return repository.ErrNotFound
	}
	if a.PartnerID != nil || b.PartnerID != nil {
		return repository.ErrAlreadyPaired
	}
	a.PartnerID = &b.ID
	b.PartnerID = &a.ID
	s.users[a.ID] = a
	s.users[b.ID] = b
	return nil
}

// NoticeStore is an in-memory services.NoticeStore that rejects a second
// notice per sender and period
type NoticeStore struct {
	mu      sync.Mutex
	notices []models.Notice
}

// NewNoticeStore creates an empty notice store
func NewNoticeStore() *NoticeStore {
	return &NoticeStore{}
}

// Len returns the number of stored notices
func (s *NoticeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

// Create inserts a notice; a second one from the same sender in a period is repository.ErrDuplicate
func (s *NoticeStore) Create(_ context.Context, n *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notices {
		if existing.SenderID == n.SenderID && existing.PeriodKey == n.PeriodKey {
			return repository.ErrDuplicate
		}
	}
	s.notices = append(s.notices, *n)
	return nil
}

// GetByID returns a copy of the notice or repository.ErrNotFound
func (s *NoticeStore) GetByID(_ context.Context, id string) (*models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notices {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetActiveForRecipient returns the latest notice for the recipient that has not reset at now
func (s *NoticeStore) GetActiveForRecipient(_ context.Context, recipientID string, now time.Time) (*models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Notice
	for i := range s.notices {
		n := s.notices[i]
		if n.RecipientID != recipientID || !n.ResetAt.After(now) {
			continue
		}
		if latest == nil || n.SentAt.After(latest.SentAt) {
			latest = &n
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

// GetBySenderPeriod returns the notice a sender wrote in a period
func (s *NoticeStore) GetBySenderPeriod(_ context.Context, senderID, periodKey string) (*models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notices {
		if n.SenderID == senderID && n.PeriodKey == periodKey {
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Update replaces a notice, or returns repository.ErrExpired once its reset time is not after now
func (s *NoticeStore) Update(_ context.Context, n *models.Notice, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notices {
		if s.notices[i].ID == n.ID {
			if !s.notices[i].ResetAt.After(now) {
				return repository.ErrExpired
			}
			s.notices[i] = *n
			return nil
		}
	}
	return repository.ErrNotFound
}

// ListForUser pages through notices sent or received by a user, newest first
func (s *NoticeStore) ListForUser(_ context.Context, userID string, limit, offset int) ([]*models.Notice, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*models.Notice
	for i := range s.notices {
		n := s.notices[i]
		if n.SenderID == userID || n.RecipientID == userID {
			matched = append(matched, &n)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].SentAt.After(matched[j].SentAt) })

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// PushSubscriptionStore is an in-memory services.PushSubscriptionStore
type PushSubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]models.PushSubscription
}

// NewPushSubscriptionStore creates an empty subscription store
func NewPushSubscriptionStore() *PushSubscriptionStore {
	return &PushSubscriptionStore{subs: make(map[string]models.PushSubscription)}
}

// Upsert replaces the user's subscription
func (s *PushSubscriptionStore) Upsert(_ context.Context, sub *models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = *sub
	return nil
}

// GetByUserID returns the user's subscription or repository.ErrNotFound
func (s *PushSubscriptionStore) GetByUserID(_ context.Context, userID string) (*models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

// DeleteByUserID removes the user's subscription
func (s *PushSubscriptionStore) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, userID)
	return nil
}

// BlobStore records uploaded objects
type BlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

// NewBlobStore creates an empty blob store
func NewBlobStore() *BlobStore {
	return &BlobStore{Objects: make(map[string][]byte)}
}

// Put stores body under key and returns its public URL, or Err when set
func (s *BlobStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.Objects[key] = body
	return "https://cdn.example.com/" + key, nil
}

// Delivery is one push.Sender call
type Delivery struct {
	Target  push.Target
	Payload push.Payload
}

// PushSender records deliveries and returns Err for each of them
type PushSender struct {
	mu         sync.Mutex
	Deliveries []Delivery
	Err        error
}

// Send records the delivery and returns Err
func (s *PushSender) Send(_ context.Context, target push.Target, payload push.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deliveries = append(s.Deliveries, Delivery{Target: target, Payload: payload})
	return s.Err
}

// Count returns the number of deliveries attempted
func (s *PushSender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Deliveries)
}
