package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"campfire/internal/config"
	"campfire/internal/storage/sqlite"
)

func startAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.NewStore(config.Database{Path: filepath.Join(t.TempDir(), "campfire.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	app := NewApp(testConfig(), store, slog.New(slog.DiscardHandler))
	srv := httptest.NewServer(app.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	if m, ok := decoded.(map[string]any); ok {
		return resp.StatusCode, m
	}
	// List responses are wrapped so callers get one return shape.
	return resp.StatusCode, map[string]any{"items": decoded}
}

func registerUser(t *testing.T, srv *httptest.Server, username string) (token string, id uint) {
	t.Helper()
	status, body := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)
	token = body["token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]any)
	return token, uint(user["id"].(float64))
}

func TestRegister_Validation(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "a@example.com", "password": "short",
	})
	req.Equal(http.StatusBadRequest, status)
	req.Contains(body["error"], "at least 6")

	status, _ = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "", "email": "", "password": "",
	})
	req.Equal(http.StatusBadRequest, status)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	registerUser(t, srv, "alice")

	status, body := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "hunter22",
	})
	req.Equal(http.StatusConflict, status)
	req.Contains(body["error"], "already exists")
}

func TestLogin(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	registerUser(t, srv, "alice")

	status, body := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "hunter22",
	})
	req.Equal(http.StatusOK, status)
	req.NotEmpty(body["token"])

	status, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	req.Equal(http.StatusUnauthorized, status)

	status, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "hunter22",
	})
	req.Equal(http.StatusUnauthorized, status)
}

func TestMe_RequiresValidToken(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	token, _ := registerUser(t, srv, "alice")

	status, body := doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	req.Equal(http.StatusOK, status)
	req.Equal("alice", body["username"])
	req.NotContains(body, "password")

	status, _ = doJSON(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	req.Equal(http.StatusUnauthorized, status)

	status, _ = doJSON(t, srv, http.MethodGet, "/api/auth/me", "garbage", nil)
	req.Equal(http.StatusForbidden, status)
}

func TestChannels_CreateGetList(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	token, _ := registerUser(t, srv, "alice")

	status, created := doJSON(t, srv, http.MethodPost, "/api/channels", token, map[string]string{
		"name": "general", "description": "chit chat",
	})
	req.Equal(http.StatusCreated, status)
	req.Equal("general", created["name"])
	req.Equal("alice", created["created_by_username"])

	id := uint(created["id"].(float64))
	status, fetched := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/channels/%d", id), token, nil)
	req.Equal(http.StatusOK, status)
	req.Equal("general", fetched["name"])

	status, _ = doJSON(t, srv, http.MethodGet, "/api/channels/9999", token, nil)
	req.Equal(http.StatusNotFound, status)

	status, list := doJSON(t, srv, http.MethodGet, "/api/channels", token, nil)
	req.Equal(http.StatusOK, status)
	req.Len(list["items"], 1)

	status, _ = doJSON(t, srv, http.MethodPost, "/api/channels", token, map[string]string{"name": "  "})
	req.Equal(http.StatusBadRequest, status)
}

func TestChannelMessages_PostAndHistory(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	token, userID := registerUser(t, srv, "alice")

	_, created := doJSON(t, srv, http.MethodPost, "/api/channels", token, map[string]string{"name": "general"})
	channelID := uint(created["id"].(float64))

	status, record := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/channel/%d", channelID), token,
		map[string]string{"content": "  first post  "})
	req.Equal(http.StatusCreated, status)
	req.Equal("first post", record["content"])
	req.Equal("alice", record["username"])
	req.Equal(float64(userID), record["user_id"])

	doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/channel/%d", channelID), token,
		map[string]string{"content": "second post"})

	status, history := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/channels/%d/messages", channelID), token, nil)
	req.Equal(http.StatusOK, status)
	items := history["items"].([]any)
	req.Len(items, 2)
	req.Equal("first post", items[0].(map[string]any)["content"])
	req.Equal("second post", items[1].(map[string]any)["content"])

	status, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/channel/%d", channelID), token,
		map[string]string{"content": "   "})
	req.Equal(http.StatusBadRequest, status)

	status, _ = doJSON(t, srv, http.MethodPost, "/api/messages/channel/9999", token,
		map[string]string{"content": "lost"})
	req.Equal(http.StatusNotFound, status)
}

func TestDirectMessages_PostAndHistory(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	aliceToken, aliceID := registerUser(t, srv, "alice")
	bobToken, bobID := registerUser(t, srv, "bob")

	status, record := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/dm/%d", bobID), aliceToken,
		map[string]string{"content": "hi bob"})
	req.Equal(http.StatusCreated, status)
	req.Equal("alice", record["sender_username"])
	req.Equal("bob", record["receiver_username"])

	doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/dm/%d", aliceID), bobToken,
		map[string]string{"content": "hi alice"})

	// Both directions appear in either participant's history, oldest first.
	for _, token := range []string{aliceToken, bobToken} {
		other := bobID
		if token == bobToken {
			other = aliceID
		}
		status, history := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/messages/dm/%d", other), token, nil)
		req.Equal(http.StatusOK, status)
		items := history["items"].([]any)
		req.Len(items, 2)
		req.Equal("hi bob", items[0].(map[string]any)["content"])
		req.Equal("hi alice", items[1].(map[string]any)["content"])
	}

	status, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/dm/%d", aliceID), aliceToken,
		map[string]string{"content": "note to self"})
	req.Equal(http.StatusBadRequest, status)

	status, _ = doJSON(t, srv, http.MethodPost, "/api/messages/dm/9999", aliceToken,
		map[string]string{"content": "anyone there"})
	req.Equal(http.StatusNotFound, status)
}

func TestUsers_ListAndGet(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	token, _ := registerUser(t, srv, "alice")
	_, bobID := registerUser(t, srv, "bob")

	status, list := doJSON(t, srv, http.MethodGet, "/api/users", token, nil)
	req.Equal(http.StatusOK, status)
	req.Len(list["items"], 2)

	status, user := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/users/%d", bobID), token, nil)
	req.Equal(http.StatusOK, status)
	req.Equal("bob", user["username"])

	status, _ = doJSON(t, srv, http.MethodGet, "/api/users/9999", token, nil)
	req.Equal(http.StatusNotFound, status)
}

func TestFriends_RequestAcceptList(t *testing.T) {
	req := require.New(t)
	srv := startAPIServer(t)
	aliceToken, aliceID := registerUser(t, srv, "alice")
	bobToken, bobID := registerUser(t, srv, "bob")

	status, _ := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/users/friends/request/%d", bobID), aliceToken, nil)
	req.Equal(http.StatusCreated, status)

	// The same pair cannot be requested twice, from either side.
	status, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/users/friends/request/%d", bobID), aliceToken, nil)
	req.Equal(http.StatusConflict, status)
	status, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/users/friends/request/%d", aliceID), bobToken, nil)
	req.Equal(http.StatusConflict, status)

	// Pending friendships are not listed.
	status, list := doJSON(t, srv, http.MethodGet, "/api/users/friends/list", aliceToken, nil)
	req.Equal(http.StatusOK, status)
	req.Empty(list["items"])

	status, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/users/friends/accept/%d", aliceID), bobToken, nil)
	req.Equal(http.StatusOK, status)

	for token, expected := range map[string]string{aliceToken: "bob", bobToken: "alice"} {
		status, list = doJSON(t, srv, http.MethodGet, "/api/users/friends/list", token, nil)
		req.Equal(http.StatusOK, status)
		items := list["items"].([]any)
		req.Len(items, 1)
		req.Equal(expected, items[0].(map[string]any)["username"])
	}

	status, _ = doJSON(t, srv, http.MethodPost, "/api/users/friends/accept/9999", aliceToken, nil)
	req.Equal(http.StatusNotFound, status)

	status, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/users/friends/request/%d", aliceID), aliceToken, nil)
	req.Equal(http.StatusBadRequest, status)

	status, _ = doJSON(t, srv, http.MethodPost, "/api/users/friends/request/9999", aliceToken, nil)
	req.Equal(http.StatusNotFound, status)
}
