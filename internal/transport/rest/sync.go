package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/pkg/ctxutil"
)

// syncService is the server side of the sync RPC surface.
type syncService interface {
	PushBookmarks(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error
	DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error
	PushMemorization(ctx context.Context, userID string, items []cloud.MemorizationItem) error
	PushReadingProgress(ctx context.Context, userID string, progress []cloud.ReadingProgress) error
	PushSettings(ctx context.Context, userID string, settings cloud.Settings) error
	FetchSnapshot(ctx context.Context, userID string) (cloud.Snapshot, error)
}

// SyncHandler serves /v1/users/{userID}/... for the authenticated user.
type SyncHandler struct {
	svc          syncService
	maxBodyBytes int64
	log          *slog.Logger
}

// NewSyncHandler creates a SyncHandler. maxBodyBytes <= 0 means no limit.
func NewSyncHandler(svc syncService, maxBodyBytes int64, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, maxBodyBytes: maxBodyBytes, log: logger.With("handler", "sync")}
}

type bookmarksRequest struct {
	Bookmarks []cloud.Bookmark `json:"bookmarks"`
}

type memorizationRequest struct {
	Items []cloud.MemorizationItem `json:"items"`
}

type readingRequest struct {
	Progress []cloud.ReadingProgress `json:"progress"`
}

// PushBookmarks handles POST /v1/users/{userID}/bookmarks.
func (h *SyncHandler) PushBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req bookmarksRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.PushBookmarks(r.Context(), userID, req.Bookmarks); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBookmark handles DELETE /v1/users/{userID}/bookmarks/{surahID}/{ayahNumber}.
func (h *SyncHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	surahID, err1 := strconv.Atoi(chi.URLParam(r, "surahID"))
	ayah, err2 := strconv.Atoi(chi.URLParam(r, "ayahNumber"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "surahID and ayahNumber must be integers")
		return
	}
	if err := h.svc.DeleteBookmark(r.Context(), userID, surahID, ayah); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PushMemorization handles POST /v1/users/{userID}/memorization.
func (h *SyncHandler) PushMemorization(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req memorizationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.PushMemorization(r.Context(), userID, req.Items); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PushReadingProgress handles POST /v1/users/{userID}/reading-progress.
func (h *SyncHandler) PushReadingProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req readingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.PushReadingProgress(r.Context(), userID, req.Progress); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PushSettings handles PUT /v1/users/{userID}/settings.
func (h *SyncHandler) PushSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req cloud.Settings
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.PushSettings(r.Context(), userID, req); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FetchSnapshot handles GET /v1/users/{userID}/snapshot.
func (h *SyncHandler) FetchSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.FetchSnapshot(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// authorize checks that the path user is the token subject.
func (h *SyncHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	tokenUser, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	if chi.URLParam(r, "userID") != tokenUser {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	return tokenUser, true
}

func (h *SyncHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *SyncHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
