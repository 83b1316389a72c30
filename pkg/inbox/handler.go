package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Handler serves the notifications API consumed by the web client.
// In this dev backend the bearer token is the user id.
type Handler struct {
	manager      *Manager
	streams      *BroadcastDeliverer
	metrics      *Metrics
	heartbeat    time.Duration
	historyLimit int
	logger       *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithHandlerMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithHeartbeat sets the interval between heartbeat frames. Default 15s.
func WithHeartbeat(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithHistoryLimit caps how many notifications GET /notifications returns. Default 50.
func WithHistoryLimit(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

func NewHandler(m *Manager, streams *BroadcastDeliverer, opts ...HandlerOption) *Handler {
	h := &Handler{
		manager:      m,
		streams:      streams,
		heartbeat:    15 * time.Second,
		historyLimit: 50,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("inbox_http"))
	return h
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/notifications/publish", h.publish)
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/notifications", h.list)
		r.Post("/notifications", h.intent)
		r.Get("/notifications/stream", h.stream)
		r.Post("/notifications/mark-read", h.markRead)
	})
	return r
}

type userIDKey struct{}

func authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, token)))
	})
}

func recipient(r *http.Request, role string) (Recipient, error) {
	parsed, err := notifications.ParseRole(role)
	if err != nil {
		return Recipient{}, err
	}
	userID, _ := r.Context().Value(userIDKey{}).(string)
	return Recipient{UserID: userID, Role: parsed}, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	to, err := recipient(r, r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}

	items, err := h.manager.List(r.Context(), to, ListOptions{Limit: h.historyLimit})
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

type markReadRequest struct {
	NotificationID string `json:"notificationId"`
	UserType       string `json:"userType"`
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.NotificationID == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "notificationId is required")
		return
	}
	to, err := recipient(r, req.UserType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}

	switch err := h.manager.MarkRead(r.Context(), to, req.NotificationID); {
	case errors.Is(err, ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case err != nil:
		h.internalError(w, r, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// intent handles form posts to /notifications. Only markAllRead is supported.
func (h *Handler) intent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if intent := r.PostForm.Get("intent"); intent != "markAllRead" {
		writeError(w, http.StatusBadRequest, "unknown_intent", fmt.Sprintf("unsupported intent %q", intent))
		return
	}
	to, err := recipient(r, r.PostForm.Get("userType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}

	changed, err := h.manager.MarkAllRead(r.Context(), to)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": changed})
}

type publishRequest struct {
	UserID  string             `json:"userId"`
	Role    string             `json:"role"`
	ID      string             `json:"id"`
	Type    notifications.Type `json:"type"`
	Title   string             `json:"title"`
	Message string             `json:"message"`
	Data    map[string]any     `json:"data"`
}

// publish injects a notification, standing in for the booking services.
func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	role, err := notifications.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}

	n, err := h.manager.Send(r.Context(), Recipient{UserID: req.UserID, Role: role}, notifications.Notification{
		ID:      req.ID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	})
	switch {
	case errors.Is(err, ErrMissingRecipient), errors.Is(err, ErrMissingType):
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
	case errors.Is(err, ErrDuplicateID):
		writeError(w, http.StatusConflict, "duplicate_id", err.Error())
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, n)
	}
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	to, err := recipient(r, r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}

	ctx := r.Context()
	rc := http.NewResponseController(w)
	// streams outlive the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	sub := h.streams.Subscribe(ctx, to)
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	h.metrics.streamOpened(to.Role)
	defer h.metrics.streamClosed(to.Role)
	log := h.logger.With(logger.UserID(to.UserID), logger.Role(to.Role))
	log.DebugContext(ctx, "stream opened")
	defer log.DebugContext(ctx, "stream closed")

	send := func(v any) bool {
		raw, err := json.Marshal(v)
		if err != nil {
			log.ErrorContext(ctx, "failed to encode frame", logger.Error(err))
			return true
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send(map[string]string{"type": string(notifications.ControlConnected), "clientId": uuid.NewString()}) {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	messages := sub.Receive(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !send(map[string]string{"type": string(notifications.ControlHeartbeat)}) {
				return
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if !send(msg.Data) {
				return
			}
		}
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
