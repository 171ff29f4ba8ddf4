// Package push delivers notification payloads to Web Push and APNs endpoints.
package push

import (
	"context"
	"errors"
)

// ErrSubscriptionGone means the provider reported the endpoint as permanently
// invalid and the stored subscription should be dropped
var ErrSubscriptionGone = errors.New("push subscription gone")

// Action is a notification button
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the notification shape the service worker renders
type Payload struct {
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Icon               string   `json:"icon"`
	Badge              string   `json:"badge,omitempty"`
	Tag                string   `json:"tag"`
	URL                string   `json:"url,omitempty"`
	RequireInteraction bool     `json:"requireInteraction"`
	Actions            []Action `json:"actions"`
}

// Target identifies a device. For APNs only Endpoint (the device token) is used.
type Target struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Sender delivers one payload to one target
type Sender interface {
	Send(ctx context.Context, target Target, payload Payload) error
}
