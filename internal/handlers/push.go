package handlers

import (
	"net/http"

	"good-morning-backend/internal/apperr"
	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/services"

	"github.com/rs/zerolog/log"
)

var errPushNotConfigured = apperr.New(apperr.KindUpstream, "UPSTREAM_UNAVAILABLE", "push notifications not configured")

// PushHandler handles push subscription requests
type PushHandler struct {
	dispatcher     *services.Dispatcher
	vapidPublicKey string
}

// NewPushHandler creates a new push handler
func NewPushHandler(dispatcher *services.Dispatcher, vapidPublicKey string) *PushHandler {
	return &PushHandler{
		dispatcher:     dispatcher,
		vapidPublicKey: vapidPublicKey,
	}
}

// SubscribeRequest represents the request body for POST /push/subscribe
type SubscribeRequest struct {
	Platform string `json:"platform"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// GetVAPIDPublicKey handles GET /push/vapid-public-key
func (h *PushHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		respondErr(w, r, errPushNotConfigured)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"vapidPublicKey": h.vapidPublicKey})
}

// Subscribe handles POST /push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	err := h.dispatcher.Subscribe(ctx, userID, models.PushSubscription{
		Platform: req.Platform,
		Endpoint: req.Endpoint,
		P256dh:   req.P256dh,
		Auth:     req.Auth,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("platform", req.Platform).
		Msg("Push subscription saved")

	respondJSON(w, http.StatusOK, MessageResponse{Message: "subscribed"})
}

// Unsubscribe handles DELETE /push/unsubscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.dispatcher.Unsubscribe(ctx, userID); err != nil {
		respondErr(w, r, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Push subscription removed")

	respondJSON(w, http.StatusOK, MessageResponse{Message: "unsubscribed"})
}
