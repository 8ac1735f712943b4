package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

// InboxService is satisfied by engine.Service.
type InboxService interface {
	List(ctx context.Context, recipientID string, filter inbox.Filter) ([]inbox.Record, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkReadByFilter(ctx context.Context, recipientID string, filter inbox.Filter) (int, error)
}

// SendService is satisfied by engine.Dispatcher.
type SendService interface {
	Send(ctx context.Context, req inbox.SendRequest) (inbox.DeliveryResult, error)
}

type NotificationAPI struct {
	Inbox      InboxService
	Dispatcher SendService
	Logger     *slog.Logger
}

func NewNotificationAPI(inboxService InboxService, dispatcher SendService, logger *slog.Logger) *NotificationAPI {
	return &NotificationAPI{
		Inbox:      inboxService,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// --- Queries ---

// ListNotifications handles GET /notifications?recipient_id=&filter=
func (api *NotificationAPI) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := api.Inbox.List(r.Context(), q.Get("recipient_id"), inbox.ParseFilter(q.Get("filter")))
	if err != nil {
		api.writeError(w, "ListNotifications", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type unreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// UnreadCount handles GET /notifications/unread_count?recipient_id=
func (api *NotificationAPI) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := api.Inbox.CountUnread(r.Context(), r.URL.Query().Get("recipient_id"))
	if err != nil {
		api.writeError(w, "UnreadCount", err)
		return
	}
	writeJSON(w, http.StatusOK, unreadCountResponse{UnreadCount: n})
}

// --- Mutations ---

type MarkReadRequest struct {
	RecipientID string `json:"recipient_id"`
	Filter      string `json:"filter"`
}

type markReadResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// MarkReadByFilter handles POST /notifications/mark_read_by_filter
func (api *NotificationAPI) MarkReadByFilter(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	n, err := api.Inbox.MarkReadByFilter(r.Context(), req.RecipientID, inbox.ParseFilter(req.Filter))
	if err != nil {
		api.writeError(w, "MarkReadByFilter", err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{Success: true, Updated: n})
}

type sendResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

// Send handles POST /send
func (api *NotificationAPI) Send(w http.ResponseWriter, r *http.Request) {
	var req inbox.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := api.Dispatcher.Send(r.Context(), req)
	if err != nil {
		api.writeError(w, "Send", err)
		return
	}
	writeJSON(w, http.StatusOK, sendResponse{Success: true, Result: result.MessageID})
}

// --- Helpers ---

func (api *NotificationAPI) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, inbox.ErrValidation) {
		api.Logger.Warn(op+": validation failed", "reason", err.Error())
		response.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Logger.Error(op+": request failed", "err", err)
	response.WriteJSONError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
