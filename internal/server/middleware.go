package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"campfire/internal/auth"
)

type contextKey int

const identityKey contextKey = iota

// requireAuth validates the Authorization bearer token with the same
// verifier the websocket handshake uses and attaches the resolved identity
// to the request context.
func (a *App) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.verifier.Authenticate(bearerToken(r))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				a.writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}
			a.writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return token
}

func identityFrom(ctx context.Context) auth.Identity {
	identity, _ := ctx.Value(identityKey).(auth.Identity)
	return identity
}
