package handlers

import (
	"net/http"
	"strconv"

	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// NoticeHandler handles notice-related HTTP requests
type NoticeHandler struct {
	noticeService *services.NoticeService
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(noticeService *services.NoticeService) *NoticeHandler {
	return &NoticeHandler{
		noticeService: noticeService,
	}
}

// CreateNoticeResponse is returned after a notice is stored
type CreateNoticeResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// NoticeResponse wraps a notice that may be absent
type NoticeResponse struct {
	Notice *models.Notice `json:"notice"`
}

// CreateNotice handles POST /notices/create
func (h *NoticeHandler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var in services.NoticeInput
	if err := decodeJSON(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}

	notice, err := h.noticeService.Create(ctx, userID, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CreateNoticeResponse{Message: "notice created", ID: notice.ID})
}

// GetNotice handles GET /notices/get
func (h *NoticeHandler) GetNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	notice, err := h.noticeService.Get(ctx, userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, NoticeResponse{Notice: notice})
}

// GetSentNotice handles GET /notices/sent
func (h *NoticeHandler) GetSentNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	notice, err := h.noticeService.GetSent(ctx, userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, NoticeResponse{Notice: notice})
}

// GetHistory handles GET /notices/history
func (h *NoticeHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	// Parse query parameters
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsedOffset
		}
	}

	notices, total, err := h.noticeService.History(ctx, userID, limit, offset)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	response := map[string]interface{}{
		"notices": notices,
		"total":   total,
	}
	respondJSON(w, http.StatusOK, response)
}

// EditNoticeResponse is returned after a notice is edited
type EditNoticeResponse struct {
	Message string         `json:"message"`
	Notice  *models.Notice `json:"notice"`
}

// EditNotice handles PUT /notices/{id}
func (h *NoticeHandler) EditNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	noticeID := chi.URLParam(r, "id")

	var in services.NoticeInput
	if err := decodeJSON(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}

	notice, err := h.noticeService.Edit(ctx, noticeID, userID, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, EditNoticeResponse{Message: "notice updated", Notice: notice})
}
