package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a uniqueness constraint would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

// Friendship status values.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// MaxHistoryLimit caps every history query.
const MaxHistoryLimit = 100

// User represents a persisted account record. The password hash never
// leaves the server.
type User struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// Channel represents a chat channel.
type Channel struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	CreatedBy         uint      `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username"`
	CreatedAt         time.Time `json:"created_at"`
}

// ChannelMessage is the canonical stored form of a channel message,
// including the author snapshot joined from the users table. Once returned
// it is treated as immutable.
type ChannelMessage struct {
	ID             uint      `json:"id"`
	ChannelID      uint      `json:"channel_id"`
	UserID         uint      `json:"user_id"`
	Content        string    `json:"content"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// DirectMessage is the canonical stored form of a private message between
// two users, with both participant snapshots.
type DirectMessage struct {
	ID               uint      `json:"id"`
	SenderID         uint      `json:"sender_id"`
	ReceiverID       uint      `json:"receiver_id"`
	Content          string    `json:"content"`
	SenderUsername   string    `json:"sender_username"`
	SenderPicture    string    `json:"sender_picture"`
	ReceiverUsername string    `json:"receiver_username"`
	ReceiverPicture  string    `json:"receiver_picture"`
	CreatedAt        time.Time `json:"created_at"`
}

// Friend is one accepted friendship viewed from a given user's side.
type Friend struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// Store defines the persistence operations used by the server.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	CreateChannel(ctx context.Context, channel *Channel) error
	GetChannel(ctx context.Context, id uint) (*Channel, error)
	ListChannels(ctx context.Context) ([]Channel, error)

	CreateChannelMessage(ctx context.Context, channelID, authorID uint, content string) (*ChannelMessage, error)
	ListChannelMessages(ctx context.Context, channelID uint, limit int) ([]ChannelMessage, error)

	CreateDirectMessage(ctx context.Context, senderID, receiverID uint, content string) (*DirectMessage, error)
	ListDirectMessages(ctx context.Context, userA, userB uint, limit int) ([]DirectMessage, error)

	CreateFriendRequest(ctx context.Context, userA, userB uint) error
	AcceptFriendRequest(ctx context.Context, userA, userB uint) error
	ListFriends(ctx context.Context, userID uint) ([]Friend, error)
}
