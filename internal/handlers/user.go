package handlers

import (
	"net/http"

	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ProfileResponse is the requesting user and their partner, if any
type ProfileResponse struct {
	User    *models.User `json:"user"`
	Partner *models.User `json:"partner"`
}

// GetProfile handles GET /me and GET /user/get
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, partner, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ProfileResponse{User: user, Partner: partner})
}

// UpdateUsernameRequest represents the request body for PUT /user/edit
type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

// UpdateUsername handles PUT /user/edit
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateUsernameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	if err := h.userService.UpdateUsername(ctx, userID, req.Username); err != nil {
		respondErr(w, r, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Username updated")

	respondJSON(w, http.StatusOK, MessageResponse{Message: "username updated"})
}

// NotificationsRequest represents the request body for PUT /user/notifications
type NotificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetNotifications handles PUT /user/notifications
func (h *UserHandler) SetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req NotificationsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Enabled == nil {
		respondError(w, "enabled is required", "INVALID_BODY", http.StatusBadRequest)
		return
	}

	if err := h.userService.SetNotificationsEnabled(ctx, userID, *req.Enabled); err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "notification settings updated"})
}
