package server

import (
	"errors"
	"net/http"

	"campfire/internal/storage"
)

func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		a.internalError(w, "list users", err)
		return
	}
	a.writeJSON(w, http.StatusOK, users)
}

func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	user, err := a.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		a.internalError(w, "get user", err)
		return
	}
	a.writeJSON(w, http.StatusOK, user)
}

func (a *App) handleListFriends(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	friends, err := a.store.ListFriends(r.Context(), identity.ID)
	if err != nil {
		a.internalError(w, "list friends", err)
		return
	}
	a.writeJSON(w, http.StatusOK, friends)
}

func (a *App) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathID(r, "userID")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	identity := identityFrom(r.Context())
	if otherID == identity.ID {
		a.writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
		return
	}

	if _, err := a.store.GetUserByID(r.Context(), otherID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		a.internalError(w, "get user", err)
		return
	}

	if err := a.store.CreateFriendRequest(r.Context(), identity.ID, otherID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			a.writeError(w, http.StatusConflict, "Friendship already exists")
			return
		}
		a.internalError(w, "create friend request", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]string{"message": "Friend request sent"})
}

func (a *App) handleFriendAccept(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathID(r, "userID")
	if !ok {
		a.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	identity := identityFrom(r.Context())
	if err := a.store.AcceptFriendRequest(r.Context(), identity.ID, otherID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "Friendship request not found")
			return
		}
		a.internalError(w, "accept friend request", err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"message": "Friend request accepted"})
}
