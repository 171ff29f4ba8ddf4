package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	userService    *services.UserService
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
}

// NewWebSocketHandler creates a new WebSocket handler. Browser handshakes are
// accepted only from allowedOrigins; clients that send no Origin are allowed.
func NewWebSocketHandler(hub *services.WSHub, userService *services.UserService, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		userService:    userService,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		h.allowedOrigins[strings.TrimRight(origin, "/")] = true
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return h.allowedOrigins[u.Scheme+"://"+u.Host]
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r, h.userService)
	if err != nil {
		respondError(w, "invalid token", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	// Resolve the partner before upgrading so an unknown user gets a 401
	user, partner, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	// Upgrade connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	partnerID := ""
	status := map[string]interface{}{"has_pair": false}
	if partner != nil {
		partnerID = partner.ID
		online := h.hub.IsOnline(partnerID)
		status = map[string]interface{}{
			"has_pair":         true,
			"partner_id":       partner.ID,
			"partner_username": partner.Username,
			"partner_online":   online,
		}
	}

	if err := h.hub.SendToUser(userID, services.WSMessage{
		Type:      services.MsgPairStatus,
		Timestamp: time.Now().UnixMilli(),
		Data:      status,
	}); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to send pair_status message")
	}

	h.hub.NotifyPartnerStatus(partnerID, true)
	defer func() {
		// A newer connection for this user keeps them online
		if !h.hub.IsOnline(userID) {
			h.hub.NotifyPartnerStatus(partnerID, false)
		}
	}()

	log.Info().Str("user_id", user.ID).Msg("WebSocket connection established")

	// Handle messages
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendErrorToUser(userID, "Invalid message format")
			continue
		}

		h.handleMessage(userID, msg)
	}
}

// handleMessage processes incoming WebSocket messages. Clients only ping;
// every state change goes through the HTTP API.
func (h *WebSocketHandler) handleMessage(userID string, msg services.WSMessage) {
	switch msg.Type {
	case services.MsgPing:
		if err := h.hub.SendToUser(userID, services.WSMessage{
			Type:      services.MsgPong,
			Timestamp: time.Now().UnixMilli(),
		}); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("Failed to send pong")
		}
	default:
		h.sendErrorToUser(userID, "Unknown message type")
	}
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) {
	msg := services.WSMessage{
		Type:    services.MsgError,
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
