package server

import (
	"errors"
	"net/http"
	"strings"

	"campfire/internal/storage"
)

type createChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *App) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := a.store.ListChannels(r.Context())
	if err != nil {
		a.internalError(w, "list channels", err)
		return
	}
	a.writeJSON(w, http.StatusOK, channels)
}

func (a *App) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid channel id")
		return
	}
	channel, err := a.store.GetChannel(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "Channel not found")
			return
		}
		a.internalError(w, "get channel", err)
		return
	}
	a.writeJSON(w, http.StatusOK, channel)
}

func (a *App) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		a.writeError(w, http.StatusBadRequest, "Channel name is required")
		return
	}

	identity := identityFrom(r.Context())
	channel := &storage.Channel{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   identity.ID,
	}
	if err := a.store.CreateChannel(r.Context(), channel); err != nil {
		a.internalError(w, "create channel", err)
		return
	}

	a.logger.Info("channel created", "channel_id", channel.ID, "name", channel.Name, "created_by", identity.ID)
	a.writeJSON(w, http.StatusCreated, channel)
}

func (a *App) handleChannelHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid channel id")
		return
	}
	messages, err := a.store.ListChannelMessages(r.Context(), id, storage.MaxHistoryLimit)
	if err != nil {
		a.internalError(w, "list channel messages", err)
		return
	}
	a.writeJSON(w, http.StatusOK, messages)
}
