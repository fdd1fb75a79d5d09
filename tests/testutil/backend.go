package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/healthbell/healthbell/internal/model"
)

// Token is the bearer token the fake backend accepts.
const Token = "test-token"

// wireNotification is the backend's response shape. CreatedAt is
// serialized as a naive "YYYY-MM-DD HH:MM:SS" string, mirroring the
// real backend's zone-less timestamps.
type wireNotification struct {
	ID        int64  `json:"id"`
	UserID    *int64 `json:"user_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// Backend is an in-memory fake of the notification endpoints, good
// enough to exercise the client, panel, and poller against.
type Backend struct {
	Server *httptest.Server

	mu            sync.Mutex
	notifications []model.Notification
	users         []model.UserSummary
	nextID        int64
}

// NewBackend starts a fake backend and shuts it down with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{nextID: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notifications", b.handleList)
	mux.HandleFunc("GET /api/notifications/stats", b.handleStats)
	mux.HandleFunc("PATCH /api/notifications/{id}/read", b.handleMarkRead)
	mux.HandleFunc("PATCH /api/notifications/read-all", b.handleMarkAllRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", b.handleDelete)
	mux.HandleFunc("POST /api/notifications/personalized", b.handleGenerate)
	mux.HandleFunc("POST /api/notifications/admin/create", b.handleAdminCreate)
	mux.HandleFunc("GET /api/notifications/admin/users", b.handleAdminUsers)
	mux.HandleFunc("POST /api/notifications/admin/broadcast-ai", b.handleBroadcastAI)

	b.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+Token {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"detail": "Could not validate credentials",
				})
				return
			}
			mux.ServeHTTP(w, r)
		},
	))
	t.Cleanup(b.Server.Close)

	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Seed adds a notification, assigning the next id, and returns it.
func (b *Backend) Seed(n model.Notification) model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	n.ID = b.nextID
	b.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	b.notifications = append(b.notifications, n)
	return n
}

// SeedUsers sets the admin recipient list.
func (b *Backend) SeedUsers(users []model.UserSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = users
}

// Notifications returns a copy of the current notification set.
func (b *Backend) Notifications() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Notification, len(b.notifications))
	copy(out, b.notifications)
	return out
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]wireNotification, 0, len(b.notifications))
	// Newest first, like the real backend.
	for i := len(b.notifications) - 1; i >= 0; i-- {
		n := b.notifications[i]
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, toWire(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := model.Stats{Total: len(b.notifications)}
	for _, n := range b.notifications {
		if !n.IsRead {
			stats.Unread++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (b *Backend) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.notifications {
		if b.notifications[i].ID == id {
			b.notifications[i].IsRead = true
			writeJSON(w, http.StatusOK, toWire(b.notifications[i]))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{
		"detail": "Notification not found",
	})
}

func (b *Backend) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for i := range b.notifications {
		if !b.notifications[i].IsRead {
			b.notifications[i].IsRead = true
			count++
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Marked %d notifications as read", count),
	})
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.notifications {
		n := b.notifications[i]
		if n.ID != id {
			continue
		}
		// Broadcasts cannot be deleted per-recipient.
		if n.UserID == nil {
			break
		}
		b.notifications = append(
			b.notifications[:i], b.notifications[i+1:]...,
		)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Notification deleted successfully",
		})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{
		"detail": "Notification not found or cannot be deleted",
	})
}

func (b *Backend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")
	if language != "en" && language != "hi" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"detail": "language must be en or hi",
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	uid := int64(1)
	n := model.Notification{
		ID:        b.nextID,
		UserID:    &uid,
		Type:      model.TypePersonalized,
		Title:     "Health Tip",
		Message:   "Stay hydrated and get enough sleep.",
		CreatedAt: time.Now().UTC(),
	}
	b.nextID++
	b.notifications = append(b.notifications, n)
	writeJSON(w, http.StatusOK, toWire(n))
}

func (b *Backend) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var create model.AdminNotificationCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"detail": "invalid body",
		})
		return
	}

	if create.Type == model.TypeAnnouncement && create.UserID != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"detail": "Announcements must not have a user_id (set to null for broadcast)",
		})
		return
	}
	if create.Type == model.TypeDirect && create.UserID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"detail": "Direct notifications must have a user_id",
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := model.Notification{
		ID:        b.nextID,
		UserID:    create.UserID,
		Type:      create.Type,
		Title:     create.Title,
		Message:   create.Message,
		CreatedAt: time.Now().UTC(),
	}
	b.nextID++
	b.notifications = append(b.notifications, n)
	writeJSON(w, http.StatusOK, toWire(n))
}

func (b *Backend) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.users == nil {
		writeJSON(w, http.StatusOK, []model.UserSummary{})
		return
	}
	writeJSON(w, http.StatusOK, b.users)
}

func (b *Backend) handleBroadcastAI(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.BroadcastResult{
		Message:    fmt.Sprintf("Generated %d personalized notifications", len(b.users)),
		TotalUsers: len(b.users),
	})
}

// toWire serializes CreatedAt as a naive UTC string, the way the real
// backend does.
func toWire(n model.Notification) wireNotification {
	return wireNotification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
