package server

import (
	"errors"
	"net/http"
	"strings"

	"campfire/internal/auth"
	"campfire/internal/storage"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string        `json:"message"`
	User    *storage.User `json:"user"`
	Token   string        `json:"token"`
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		a.writeError(w, http.StatusBadRequest, "Username, email, and password are required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		a.writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		a.internalError(w, "hash password", err)
		return
	}

	user := &storage.User{Username: req.Username, Email: req.Email, Password: hashed}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			a.writeError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		a.internalError(w, "create user", err)
		return
	}

	token, err := auth.NewToken(a.cfg.JWT, user.ID, user.Username)
	if err != nil {
		a.internalError(w, "issue token", err)
		return
	}

	a.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	a.writeJSON(w, http.StatusCreated, authResponse{Message: "User created successfully", User: user, Token: token})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		a.writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := a.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		a.internalError(w, "lookup user", err)
		return
	}
	if err := auth.ComparePassword(user.Password, req.Password); err != nil {
		a.writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := auth.NewToken(a.cfg.JWT, user.ID, user.Username)
	if err != nil {
		a.internalError(w, "issue token", err)
		return
	}

	a.writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: user, Token: token})
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	user, err := a.store.GetUserByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		a.internalError(w, "lookup user", err)
		return
	}
	a.writeJSON(w, http.StatusOK, user)
}

func (a *App) internalError(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op, "error", err)
	a.writeError(w, http.StatusInternalServerError, "Internal server error")
}
