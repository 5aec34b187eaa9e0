// Package sqlite is a GORM-backed SQLite implementation of storage.Store.
package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campfire/internal/config"
	"campfire/internal/storage"
)

// Store wraps a GORM connection.
type Store struct {
	db *gorm.DB
}

type userModel struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex;not null"`
	Email          string `gorm:"uniqueIndex;not null"`
	Password       string `gorm:"not null"`
	ProfilePicture string
	CreatedAt      time.Time
}

func (userModel) TableName() string { return "users" }

type channelModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	CreatedBy   uint `gorm:"index"`
	CreatedAt   time.Time
}

func (channelModel) TableName() string { return "channels" }

type messageModel struct {
	ID        uint   `gorm:"primaryKey"`
	ChannelID uint   `gorm:"index;not null"`
	UserID    uint   `gorm:"index;not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}

func (messageModel) TableName() string { return "messages" }

type directMessageModel struct {
	ID         uint   `gorm:"primaryKey"`
	SenderID   uint   `gorm:"index;not null"`
	ReceiverID uint   `gorm:"index;not null"`
	Content    string `gorm:"not null"`
	CreatedAt  time.Time
}

func (directMessageModel) TableName() string { return "direct_messages" }

type friendshipModel struct {
	ID        uint   `gorm:"primaryKey"`
	User1ID   uint   `gorm:"uniqueIndex:idx_friend_pair;not null"`
	User2ID   uint   `gorm:"uniqueIndex:idx_friend_pair;not null"`
	Status    string `gorm:"not null;default:pending"`
	CreatedAt time.Time
}

func (friendshipModel) TableName() string { return "friendships" }

// NewStore opens a SQLite database at the configured path.
func NewStore(cfg config.Database) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&userModel{},
		&channelModel{},
		&messageModel{},
		&directMessageModel{},
		&friendshipModel{},
	)
}

// CreateUser stores a new account, rejecting duplicate usernames or emails
// with storage.ErrDuplicate. The caller-provided record is updated with the
// assigned ID and creation time.
func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	if user == nil {
		return errors.New("nil user")
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrDuplicate
	}

	model := userModel{
		Username:       user.Username,
		Email:          user.Email,
		Password:       user.Password,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*storage.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	return toUser(model), nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return toUser(model), nil
}

// ListUsers returns every account, ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]storage.User, error) {
	var models []userModel
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]storage.User, 0, len(models))
	for _, m := range models {
		users = append(users, *toUser(m))
	}
	return users, nil
}

// CreateChannel stores a new channel and fills in the creator snapshot.
func (s *Store) CreateChannel(ctx context.Context, channel *storage.Channel) error {
	if channel == nil {
		return errors.New("nil channel")
	}
	model := channelModel{
		Name:        channel.Name,
		Description: channel.Description,
		CreatedBy:   channel.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	stored, err := s.GetChannel(ctx, model.ID)
	if err != nil {
		return err
	}
	*channel = *stored
	return nil
}

// GetChannel retrieves a channel with its creator's username.
func (s *Store) GetChannel(ctx context.Context, id uint) (*storage.Channel, error) {
	var channel storage.Channel
	result := s.db.WithContext(ctx).Table("channels").
		Select("channels.id, channels.name, channels.description, channels.created_by, channels.created_at, users.username AS created_by_username").
		Joins("LEFT JOIN users ON users.id = channels.created_by").
		Where("channels.id = ?", id).
		Scan(&channel)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return &channel, nil
}

// ListChannels returns every channel, oldest first.
func (s *Store) ListChannels(ctx context.Context) ([]storage.Channel, error) {
	channels := make([]storage.Channel, 0)
	err := s.db.WithContext(ctx).Table("channels").
		Select("channels.id, channels.name, channels.description, channels.created_by, channels.created_at, users.username AS created_by_username").
		Joins("LEFT JOIN users ON users.id = channels.created_by").
		Order("channels.created_at ASC").
		Scan(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// CreateChannelMessage persists a channel message and returns the canonical
// record with the author snapshot joined in.
func (s *Store) CreateChannelMessage(ctx context.Context, channelID, authorID uint, content string) (*storage.ChannelMessage, error) {
	model := messageModel{
		ChannelID: channelID,
		UserID:    authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}

	var record storage.ChannelMessage
	result := s.db.WithContext(ctx).Table("messages").
		Select("messages.id, messages.channel_id, messages.user_id, messages.content, messages.created_at, users.username, users.profile_picture").
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.id = ?", model.ID).
		Scan(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

// ListChannelMessages returns a channel's history, oldest first, capped at
// storage.MaxHistoryLimit.
func (s *Store) ListChannelMessages(ctx context.Context, channelID uint, limit int) ([]storage.ChannelMessage, error) {
	records := make([]storage.ChannelMessage, 0)
	err := s.db.WithContext(ctx).Table("messages").
		Select("messages.id, messages.channel_id, messages.user_id, messages.content, messages.created_at, users.username, users.profile_picture").
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.channel_id = ?", channelID).
		Order("messages.created_at ASC, messages.id ASC").
		Limit(capLimit(limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateDirectMessage persists a private message and returns the canonical
// record with both participant snapshots.
func (s *Store) CreateDirectMessage(ctx context.Context, senderID, receiverID uint, content string) (*storage.DirectMessage, error) {
	model := directMessageModel{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}

	var record storage.DirectMessage
	result := s.db.WithContext(ctx).Table("direct_messages").
		Select(directMessageColumns).
		Joins("JOIN users sender ON sender.id = direct_messages.sender_id").
		Joins("JOIN users receiver ON receiver.id = direct_messages.receiver_id").
		Where("direct_messages.id = ?", model.ID).
		Scan(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

// ListDirectMessages returns the conversation between two users in both
// directions, oldest first, capped at storage.MaxHistoryLimit.
func (s *Store) ListDirectMessages(ctx context.Context, userA, userB uint, limit int) ([]storage.DirectMessage, error) {
	records := make([]storage.DirectMessage, 0)
	err := s.db.WithContext(ctx).Table("direct_messages").
		Select(directMessageColumns).
		Joins("JOIN users sender ON sender.id = direct_messages.sender_id").
		Joins("JOIN users receiver ON receiver.id = direct_messages.receiver_id").
		Where("(direct_messages.sender_id = ? AND direct_messages.receiver_id = ?) OR (direct_messages.sender_id = ? AND direct_messages.receiver_id = ?)",
			userA, userB, userB, userA).
		Order("direct_messages.created_at ASC, direct_messages.id ASC").
		Limit(capLimit(limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateFriendRequest records a pending friendship. The pair is stored with
// the smaller user ID first so either side maps to the same row.
func (s *Store) CreateFriendRequest(ctx context.Context, userA, userB uint) error {
	first, second := orderedPair(userA, userB)

	var count int64
	err := s.db.WithContext(ctx).Model(&friendshipModel{}).
		Where("user1_id = ? AND user2_id = ?", first, second).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrDuplicate
	}

	model := friendshipModel{
		User1ID:   first,
		User2ID:   second,
		Status:    storage.FriendshipPending,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// AcceptFriendRequest marks an existing friendship as accepted.
func (s *Store) AcceptFriendRequest(ctx context.Context, userA, userB uint) error {
	first, second := orderedPair(userA, userB)
	result := s.db.WithContext(ctx).Model(&friendshipModel{}).
		Where("user1_id = ? AND user2_id = ?", first, second).
		Update("status", storage.FriendshipAccepted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type friendshipRow struct {
	User1ID       uint
	User2ID       uint
	User1Username string
	User1Picture  string
	User2Username string
	User2Picture  string
}

// ListFriends returns the accepted friendships of a user, newest first,
// mapped to the counterpart on each row.
func (s *Store) ListFriends(ctx context.Context, userID uint) ([]storage.Friend, error) {
	var rows []friendshipRow
	err := s.db.WithContext(ctx).Table("friendships").
		Select("friendships.user1_id, friendships.user2_id, u1.username AS user1_username, u1.profile_picture AS user1_picture, u2.username AS user2_username, u2.profile_picture AS user2_picture").
		Joins("JOIN users u1 ON u1.id = friendships.user1_id").
		Joins("JOIN users u2 ON u2.id = friendships.user2_id").
		Where("(friendships.user1_id = ? OR friendships.user2_id = ?) AND friendships.status = ?",
			userID, userID, storage.FriendshipAccepted).
		Order("friendships.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	friends := make([]storage.Friend, 0, len(rows))
	for _, row := range rows {
		if row.User1ID == userID {
			friends = append(friends, storage.Friend{ID: row.User2ID, Username: row.User2Username, ProfilePicture: row.User2Picture})
		} else {
			friends = append(friends, storage.Friend{ID: row.User1ID, Username: row.User1Username, ProfilePicture: row.User1Picture})
		}
	}
	return friends, nil
}

const directMessageColumns = "direct_messages.id, direct_messages.sender_id, direct_messages.receiver_id, direct_messages.content, direct_messages.created_at, " +
	"sender.username AS sender_username, sender.profile_picture AS sender_picture, " +
	"receiver.username AS receiver_username, receiver.profile_picture AS receiver_picture"

func toUser(model userModel) *storage.User {
	return &storage.User{
		ID:             model.ID,
		Username:       model.Username,
		Email:          model.Email,
		Password:       model.Password,
		ProfilePicture: model.ProfilePicture,
		CreatedAt:      model.CreatedAt,
	}
}

func capLimit(limit int) int {
	if limit <= 0 || limit > storage.MaxHistoryLimit {
		return storage.MaxHistoryLimit
	}
	return limit
}

func orderedPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
