package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campfire/internal/config"
)

var (
	// ErrUnauthenticated indicates that no credential was presented.
	ErrUnauthenticated = errors.New("missing credential")
	// ErrInvalidCredential indicates a malformed, forged, or expired credential.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Identity is the stable identity a valid credential resolves to.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Claims represents the JWT payload for authenticated users.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"uname"`
	jwt.RegisteredClaims
}

// NewToken generates a signed JWT for the provided user.
func NewToken(cfg config.JWT, userID uint, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// Verifier validates bearer credentials for both the HTTP layer and the
// websocket handshake, so a token accepted by one is accepted by the other.
type Verifier struct {
	cfg config.JWT
}

// NewVerifier constructs a verifier from token configuration.
func NewVerifier(cfg config.JWT) *Verifier {
	return &Verifier{cfg: cfg}
}

// Authenticate resolves a bearer token into an identity. It returns
// ErrUnauthenticated for an absent token and ErrInvalidCredential for a
// token that fails validation.
func (v *Verifier) Authenticate(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidCredential
	}
	return Identity{ID: claims.UserID, Username: claims.Username}, nil
}
