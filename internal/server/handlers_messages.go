package server

import (
	"errors"
	"net/http"
	"strings"

	"campfire/internal/storage"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

// handleSendChannelMessage durably persists a channel message and returns
// the canonical record. Live delivery is a separate step: the caller
// republishes the returned record over its websocket session. A concurrent
// history fetch of the same channel may or may not observe a record whose
// live delivery is still in flight; the two paths are eventually, not
// linearizably, consistent.
func (a *App) handleSendChannelMessage(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(r, "channelID")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid channel id")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		a.writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	if _, err := a.store.GetChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "Channel not found")
			return
		}
		a.internalError(w, "get channel", err)
		return
	}

	identity := identityFrom(r.Context())
	record, err := a.store.CreateChannelMessage(r.Context(), channelID, identity.ID, content)
	if err != nil {
		a.internalError(w, "create channel message", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, record)
}

func (a *App) handleDirectHistory(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathID(r, "userID")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	identity := identityFrom(r.Context())
	messages, err := a.store.ListDirectMessages(r.Context(), identity.ID, otherID, storage.MaxHistoryLimit)
	if err != nil {
		a.internalError(w, "list direct messages", err)
		return
	}
	a.writeJSON(w, http.StatusOK, messages)
}

func (a *App) handleSendDirectMessage(w http.ResponseWriter, r *http.Request) {
	receiverID, ok := pathID(r, "userID")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		a.writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	identity := identityFrom(r.Context())
	if receiverID == identity.ID {
		a.writeError(w, http.StatusBadRequest, "Cannot send message to yourself")
		return
	}

	if _, err := a.store.GetUserByID(r.Context(), receiverID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		a.internalError(w, "get user", err)
		return
	}

	record, err := a.store.CreateDirectMessage(r.Context(), identity.ID, receiverID, content)
	if err != nil {
		a.internalError(w, "create direct message", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, record)
}
