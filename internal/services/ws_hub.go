package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"good-morning-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket message types
const (
	MsgPairStatus     = "pair_status"
	MsgPartnerStatus  = "partner_status"
	MsgPairCreated    = "pair_created"
	MsgNoticeReceived = "notice_received"
	MsgNoticeUpdated  = "notice_updated"
	MsgPing           = "ping"
	MsgPong           = "pong"
	MsgError          = "error"
)

const writeWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Online    *bool       `json:"online,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// wsClient serializes writes; gorilla connections allow one concurrent writer
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}

	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection for a user if it is still conn. A newer
// connection registered by the same user is left in place.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[userID]; exists && client.conn == conn {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// NotifyPartnerStatus notifies partner about online/offline status
func (h *WSHub) NotifyPartnerStatus(partnerID string, online bool) {
	if partnerID == "" || !h.IsOnline(partnerID) {
		return
	}

	message := WSMessage{
		Type:   MsgPartnerStatus,
		Online: &online,
	}

	if err := h.SendToUser(partnerID, message); err != nil {
		log.Error().
			Err(err).
			Str("user_id", partnerID).
			Msg("Failed to notify partner status")
	}
}

// NotifyPairCreated tells both users, if connected, that they are now paired
func (h *WSHub) NotifyPairCreated(a, b *models.User) {
	for _, pair := range [][2]*models.User{{a, b}, {b, a}} {
		user, partner := pair[0], pair[1]
		if !h.IsOnline(user.ID) {
			continue
		}
		message := WSMessage{
			Type:      MsgPairCreated,
			Timestamp: time.Now().UnixMilli(),
			Data: map[string]interface{}{
				"partner_id":       partner.ID,
				"partner_username": partner.Username,
			},
		}
		if err := h.SendToUser(user.ID, message); err != nil {
			log.Error().
				Err(err).
				Str("user_id", user.ID).
				Msg("Failed to notify user about pair creation")
		}
	}
}
