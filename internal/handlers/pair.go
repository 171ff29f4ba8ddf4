package handlers

import (
	"net/http"

	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PairHandler handles pair-related HTTP requests
type PairHandler struct {
	pairService *services.PairService
	userService *services.UserService
	wsHub       *services.WSHub
}

// NewPairHandler creates a new pair handler
func NewPairHandler(pairService *services.PairService, userService *services.UserService, wsHub *services.WSHub) *PairHandler {
	return &PairHandler{
		pairService: pairService,
		userService: userService,
		wsHub:       wsHub,
	}
}

// CreatePairRequest represents the request body for creating a pair
type CreatePairRequest struct {
	PairCode string `json:"pairCode"`
}

// PairResponse is returned after a successful pairing
type PairResponse struct {
	Message string       `json:"message"`
	Partner *models.User `json:"partner"`
}

// CreatePair handles POST /user/pair
func (h *PairHandler) CreatePair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreatePairRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	partner, err := h.pairService.Pair(ctx, userID, req.PairCode)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to create pair")
		respondErr(w, r, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("partner_id", partner.ID).
		Msg("Pair created")

	// the pair already exists; realtime delivery is best effort
	if user, err := h.userService.GetUser(ctx, userID); err == nil {
		h.wsHub.NotifyPairCreated(user, partner)
	}

	respondJSON(w, http.StatusOK, PairResponse{Message: "paired", Partner: partner})
}
