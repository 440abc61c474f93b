package handler

import (
	"net/http"
	"strconv"

	"github.com/Rrens/taskboard/internal/api/response"
	"github.com/Rrens/taskboard/internal/service"
)

// NotificationHandler handles the caller's notifications
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles listing notifications. Hidden ones are included with ?includeHidden=true.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	includeHidden, _ := strconv.ParseBool(r.URL.Query().Get("includeHidden"))

	notifications, err := h.notificationService.List(r.Context(), a, includeHidden, queryLimit(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, notifications)
}

// MarkRead handles marking one notification as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "notificationID")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, n)
}

// Hide handles hiding one notification
func (h *NotificationHandler) Hide(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "notificationID")
	if !ok {
		return
	}

	if err := h.notificationService.Hide(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// MarkAllRead handles marking every notification as read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), a)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, map[string]int64{"updated": updated})
}
