package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// WebPushOptions holds the VAPID identity
type WebPushOptions struct {
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int
}

type webPushFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// WebPushSender delivers through the browser push services
type WebPushSender struct {
	opts WebPushOptions
	send webPushFunc
}

// NewWebPushSender creates a sender signing requests with the given VAPID keys
func NewWebPushSender(opts WebPushOptions) *WebPushSender {
	if opts.TTL == 0 {
		opts.TTL = 24 * 60 * 60
	}
	return &WebPushSender{opts: opts, send: webpush.SendNotificationWithContext}
}

// Send encrypts and posts payload to the subscription endpoint
func (s *WebPushSender) Send(ctx context.Context, target Target, payload Payload) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := s.send(ctx, message, &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			Auth:   target.Auth,
			P256dh: target.P256dh,
		},
	}, &webpush.Options{
		Subscriber:      s.opts.Subscriber,
		VAPIDPublicKey:  s.opts.VAPIDPublicKey,
		VAPIDPrivateKey: s.opts.VAPIDPrivateKey,
		TTL:             s.opts.TTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("failed to send web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("web push rejected with status %d", resp.StatusCode)
	}
	return nil
}
