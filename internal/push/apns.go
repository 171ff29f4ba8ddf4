package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsOptions holds token-based APNs credentials
type APNsOptions struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

type apnsPushFunc func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error)

// APNsSender delivers to iOS devices
type APNsSender struct {
	topic string
	push  apnsPushFunc
}

// NewAPNsSender loads the .p8 signing key and creates a token client
func NewAPNsSender(opts APNsOptions) (*APNsSender, error) {
	authKey, err := token.AuthKeyFromFile(opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   opts.KeyID,
		TeamID:  opts.TeamID,
	})
	if opts.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsSender{
		topic: opts.Topic,
		push: func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error) {
			return client.PushWithContext(ctx, n)
		},
	}, nil
}

// Send pushes an alert to the device token in target.Endpoint
func (s *APNsSender) Send(ctx context.Context, target Target, p Payload) error {
	notification := &apns2.Notification{
		DeviceToken: target.Endpoint,
		Topic:       s.topic,
		Priority:    apns2.PriorityHigh,
		Payload: payload.NewPayload().
			AlertTitle(p.Title).
			AlertBody(p.Body).
			Sound("default").
			ThreadID(p.Tag).
			Custom("url", p.URL),
	}

	res, err := s.push(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to send apns push: %w", err)
	}
	if res.Sent() {
		return nil
	}

	switch res.Reason {
	case apns2.ReasonUnregistered, apns2.ReasonBadDeviceToken:
		return ErrSubscriptionGone
	}
	return fmt.Errorf("apns rejected with status %d: %s", res.StatusCode, res.Reason)
}
