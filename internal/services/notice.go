package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"good-morning-backend/internal/metrics"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/repository"
	"good-morning-backend/internal/spotify"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NoticeInput is the client-supplied content of a notice. Optional fields are
// nil when absent; empty strings are treated as absent.
type NoticeInput struct {
	Message         *string `json:"message"`
	PhotoURL        *string `json:"photoUrl"`
	SongURL         *string `json:"songUrl"`
	SongExplanation *string `json:"songExplanation"`
	ForegroundColor string  `json:"foregroundColor"`
	BackgroundColor string  `json:"backgroundColor"`
}

// normalize trims every field, drops empty optionals and checks the colors
func (in NoticeInput) normalize() (NoticeInput, error) {
	out := NoticeInput{
		Message:         optional(in.Message),
		PhotoURL:        optional(in.PhotoURL),
		SongURL:         optional(in.SongURL),
		SongExplanation: optional(in.SongExplanation),
		ForegroundColor: strings.TrimSpace(in.ForegroundColor),
		BackgroundColor: strings.TrimSpace(in.BackgroundColor),
	}
	if out.ForegroundColor == "" || out.BackgroundColor == "" {
		return out, ErrMissingColor
	}
	return out, nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// NoticeService enforces the one-notice-per-period rule and notice visibility
type NoticeService struct {
	noticeRepo NoticeStore
	userRepo   UserStore
	tracks     TrackLookup
	notifier   NoticeNotifier
	period     Period
	now        func() time.Time
}

// NewNoticeService creates a new notice service. tracks may be nil when
// Spotify is not configured.
func NewNoticeService(noticeRepo NoticeStore, userRepo UserStore, tracks TrackLookup, notifier NoticeNotifier, period Period) *NoticeService {
	return &NoticeService{
		noticeRepo: noticeRepo,
		userRepo:   userRepo,
		tracks:     tracks,
		notifier:   notifier,
		period:     period,
		now:        time.Now,
	}
}

// Create stores a notice from sender to their partner for the current period
func (s *NoticeService) Create(ctx context.Context, senderID string, in NoticeInput) (*models.Notice, error) {
	notice, sender, err := s.create(ctx, senderID, in)
	metrics.NoticesTotal.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NoticeCreated(sender, notice)
	}
	return notice, nil
}

func (s *NoticeService) create(ctx context.Context, senderID string, in NoticeInput) (*models.Notice, *models.User, error) {
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("failed to get sender: %w", err)
	}
	if !sender.HasPartner() {
		return nil, nil, ErrNotPaired
	}

	in, err = in.normalize()
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	periodKey := s.period.Key(now)

	_, err = s.noticeRepo.GetBySenderPeriod(ctx, senderID, periodKey)
	switch {
	case err == nil:
		return nil, nil, ErrAlreadySentToday
	case !errors.Is(err, repository.ErrNotFound):
		return nil, nil, fmt.Errorf("failed to check today's notice: %w", err)
	}

	notice := &models.Notice{
		ID:              uuid.New().String(),
		SenderID:        sender.ID,
		RecipientID:     *sender.PartnerID,
		Message:         in.Message,
		PhotoURL:        in.PhotoURL,
		SongURL:         in.SongURL,
		SongExplanation: in.SongExplanation,
		ForegroundColor: in.ForegroundColor,
		BackgroundColor: in.BackgroundColor,
		SentAt:          now,
		ResetAt:         s.period.ResetAt(now),
		PeriodKey:       periodKey,
	}
	s.enrichSong(ctx, notice)

	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrAlreadySentToday
		}
		return nil, nil, fmt.Errorf("failed to create notice: %w", err)
	}

	log.Info().
		Str("notice_id", notice.ID).
		Str("sender_id", notice.SenderID).
		Str("recipient_id", notice.RecipientID).
		Time("reset_at", notice.ResetAt).
		Msg("Notice created")

	return notice, sender, nil
}

// Get returns the active notice addressed to requester, or nil
func (s *NoticeService) Get(ctx context.Context, requesterID string) (*models.Notice, error) {
	notice, err := s.noticeRepo.GetActiveForRecipient(ctx, requesterID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notice: %w", err)
	}
	return notice, nil
}

// GetSent returns the notice the sender wrote in the current period while it
// is still active, or nil
func (s *NoticeService) GetSent(ctx context.Context, senderID string) (*models.Notice, error) {
	now := s.now()
	notice, err := s.noticeRepo.GetBySenderPeriod(ctx, senderID, s.period.Key(now))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sent notice: %w", err)
	}
	if !notice.ActiveAt(now) {
		return nil, nil
	}
	return notice, nil
}

// Edit replaces the content of an active notice. Only its sender may edit it.
func (s *NoticeService) Edit(ctx context.Context, noticeID, requesterID string, in NoticeInput) (*models.Notice, error) {
	notice, err := s.edit(ctx, noticeID, requesterID, in)
	metrics.NoticesTotal.WithLabelValues("edit", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NoticeEdited(notice)
	}
	return notice, nil
}

func (s *NoticeService) edit(ctx context.Context, noticeID, requesterID string, in NoticeInput) (*models.Notice, error) {
	notice, err := s.noticeRepo.GetByID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, fmt.Errorf("failed to get notice: %w", err)
	}

	if notice.SenderID != requesterID {
		return nil, ErrForbidden
	}

	now := s.now()
	if !notice.ActiveAt(now) {
		return nil, ErrNoticeExpired
	}

	in, err = in.normalize()
	if err != nil {
		return nil, err
	}

	songChanged := !sameString(notice.SongURL, in.SongURL)

	notice.Message = in.Message
	notice.PhotoURL = in.PhotoURL
	notice.SongURL = in.SongURL
	notice.SongExplanation = in.SongExplanation
	notice.ForegroundColor = in.ForegroundColor
	notice.BackgroundColor = in.BackgroundColor
	notice.EditedAt = &now

	if songChanged {
		notice.SongTitle, notice.SongArtist, notice.SongAlbumCover = nil, nil, nil
		s.enrichSong(ctx, notice)
	}

	if err := s.noticeRepo.Update(ctx, notice, s.now()); err != nil {
		if errors.Is(err, repository.ErrExpired) {
			return nil, ErrNoticeExpired
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, fmt.Errorf("failed to update notice: %w", err)
	}

	log.Info().
		Str("notice_id", notice.ID).
		Str("sender_id", notice.SenderID).
		Msg("Notice edited")

	return notice, nil
}

// History retrieves notices sent or received by a user with pagination
func (s *NoticeService) History(ctx context.Context, userID string, limit, offset int) ([]*models.Notice, int, error) {
	// Validate limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	notices, total, err := s.noticeRepo.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notices: %w", err)
	}
	if notices == nil {
		notices = []*models.Notice{}
	}
	return notices, total, nil
}

// enrichSong fills in track metadata. Lookup failures never block the notice.
func (s *NoticeService) enrichSong(ctx context.Context, notice *models.Notice) {
	if s.tracks == nil || notice.SongURL == nil {
		return
	}

	trackID, err := spotify.ParseTrackID(*notice.SongURL)
	if err != nil {
		log.Debug().Str("song_url", *notice.SongURL).Msg("Song URL is not a Spotify track")
		return
	}

	details, err := s.tracks.Track(ctx, trackID)
	if err != nil {
		log.Warn().Err(err).Str("track_id", trackID).Msg("Failed to fetch Spotify track details")
		return
	}

	notice.SongTitle = optional(&details.Title)
	notice.SongArtist = optional(&details.Artist)
	notice.SongAlbumCover = optional(&details.AlbumCover)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
