package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"good-morning-backend/internal/metrics"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/push"
	"good-morning-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Outcome is the result of a push dispatch decision
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Dispatcher decides whether a recipient gets a push for a new notice and
// delivers it off the request path
type Dispatcher struct {
	userRepo UserStore
	subRepo  PushSubscriptionStore
	senders  map[string]push.Sender
	realtime Realtime
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. senders is keyed by platform
// (models.PlatformWeb, models.PlatformAPNs); realtime may be nil.
func NewDispatcher(userRepo UserStore, subRepo PushSubscriptionStore, senders map[string]push.Sender, realtime Realtime, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		userRepo: userRepo,
		subRepo:  subRepo,
		senders:  senders,
		realtime: realtime,
		timeout:  timeout,
	}
}

// NoticeCreated notifies the recipient in the background. It never blocks
// and never reports failure to the caller.
func (d *Dispatcher) NoticeCreated(sender *models.User, notice *models.Notice) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		d.sendRealtime(notice.RecipientID, WSMessage{
			Type:      MsgNoticeReceived,
			Timestamp: notice.SentAt.UnixMilli(),
			Data:      notice,
		})

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		outcome, err := d.Notify(ctx, notice.RecipientID, senderName(sender))
		if err != nil {
			log.Error().
				Err(err).
				Str("notice_id", notice.ID).
				Str("recipient_id", notice.RecipientID).
				Msg("Failed to dispatch push notification")
			return
		}
		log.Debug().
			Str("notice_id", notice.ID).
			Str("recipient_id", notice.RecipientID).
			Str("outcome", string(outcome)).
			Msg("Push notification handled")
	}()
}

// NoticeEdited tells a connected recipient that the notice content changed
func (d *Dispatcher) NoticeEdited(notice *models.Notice) {
	msg := WSMessage{
		Type:      MsgNoticeUpdated,
		Timestamp: time.Now().UnixMilli(),
		Data:      notice,
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sendRealtime(notice.RecipientID, msg)
	}()
}

// sendRealtime delivers msg if the user has a live connection. A stalled
// socket holds only the calling goroutine.
func (d *Dispatcher) sendRealtime(userID string, msg WSMessage) {
	if d.realtime == nil || !d.realtime.IsOnline(userID) {
		return
	}
	if err := d.realtime.SendToUser(userID, msg); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to send WebSocket message")
	}
}

// Wait blocks until in-flight dispatches finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify pushes the new-notice payload to the recipient's registered device.
// It is skipped when notifications are disabled or nothing is registered.
func (d *Dispatcher) Notify(ctx context.Context, recipientID, fromName string) (Outcome, error) {
	platform := "none"
	outcome, err := d.notify(ctx, recipientID, fromName, &platform)
	metrics.PushDispatchTotal.WithLabelValues(platform, string(outcome)).Inc()
	return outcome, err
}

func (d *Dispatcher) notify(ctx context.Context, recipientID, fromName string, platform *string) (Outcome, error) {
	recipient, err := d.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to get recipient: %w", err)
	}
	if !recipient.NotificationsEnabled {
		return OutcomeSkipped, nil
	}

	sub, err := d.subRepo.GetByUserID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to get push subscription: %w", err)
	}
	*platform = sub.Platform

	sender, ok := d.senders[sub.Platform]
	if !ok || sender == nil {
		return OutcomeSkipped, nil
	}

	target := push.Target{Endpoint: sub.Endpoint, P256dh: sub.P256dh, Auth: sub.Auth}
	if err := sender.Send(ctx, target, NoticePayload(fromName)); err != nil {
		if errors.Is(err, push.ErrSubscriptionGone) {
			if delErr := d.subRepo.DeleteByUserID(ctx, recipientID); delErr != nil {
				log.Warn().Err(delErr).Str("user_id", recipientID).Msg("Failed to drop stale push subscription")
			}
		}
		return OutcomeFailed, err
	}
	return OutcomeDispatched, nil
}

// NoticePayload is the notification shown for a new notice
func NoticePayload(fromName string) push.Payload {
	return push.Payload{
		Title:              "good morning!",
		Body:               fromName + " sent you a notice",
		Icon:               "/icon-192x192.png",
		Badge:              "/icon-192x192.png",
		Tag:                "good-morning-notification",
		URL:                "/",
		RequireInteraction: true,
		Actions: []push.Action{
			{Action: "view", Title: "view notice"},
			{Action: "dismiss", Title: "dismiss"},
		},
	}
}

func senderName(u *models.User) string {
	if u == nil || strings.TrimSpace(u.Username) == "" {
		return "your partner"
	}
	return u.Username
}

// Subscribe registers the user's push endpoint, replacing any previous one,
// and turns notifications on
func (d *Dispatcher) Subscribe(ctx context.Context, userID string, sub models.PushSubscription) error {
	sub.Platform = strings.ToLower(strings.TrimSpace(sub.Platform))
	if sub.Platform == "" {
		sub.Platform = models.PlatformWeb
	}
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)

	switch sub.Platform {
	case models.PlatformWeb:
		if !strings.HasPrefix(sub.Endpoint, "https://") || sub.P256dh == "" || sub.Auth == "" {
			return ErrInvalidSubscription
		}
	case models.PlatformAPNs:
		if sub.Endpoint == "" {
			return ErrInvalidSubscription
		}
		sub.P256dh, sub.Auth = "", ""
	default:
		return ErrInvalidSubscription
	}

	sub.ID = uuid.New().String()
	sub.UserID = userID
	sub.CreatedAt = time.Now()

	if err := d.subRepo.Upsert(ctx, &sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	if err := d.userRepo.SetNotificationsEnabled(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	return nil
}

// Unsubscribe removes the user's push endpoint and turns notifications off
func (d *Dispatcher) Unsubscribe(ctx context.Context, userID string) error {
	if err := d.subRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if err := d.userRepo.SetNotificationsEnabled(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to disable notifications: %w", err)
	}
	return nil
}
