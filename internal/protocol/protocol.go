// Package protocol defines the JSON frames exchanged over a chat websocket.
//
// Message payloads are canonical records previously persisted through the
// HTTP API; the server republishes them verbatim and never rewrites their
// contents.
package protocol

import "encoding/json"

// ClientFrameType enumerates frames a client may send.
type ClientFrameType string

const (
	FrameAuth           ClientFrameType = "auth"
	FrameJoinChannel    ClientFrameType = "join_channel"
	FrameLeaveChannel   ClientFrameType = "leave_channel"
	FrameChannelMessage ClientFrameType = "channel_message"
	FrameDirectMessage  ClientFrameType = "direct_message"
)

// ServerEventType enumerates events the server emits.
type ServerEventType string

const (
	EventAuthOK         ServerEventType = "auth_ok"
	EventAuthError      ServerEventType = "auth_error"
	EventChannelMessage ServerEventType = "new_channel_message"
	EventDirectMessage  ServerEventType = "new_direct_message"
)

// ClientFrame is the inbound envelope. Exactly one of the optional field
// groups is meaningful depending on Type.
type ClientFrame struct {
	Type       ClientFrameType `json:"type"`
	Token      string          `json:"token,omitempty"`
	ChannelID  uint            `json:"channel_id,omitempty"`
	ReceiverID uint            `json:"receiver_id,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`
}

// UserInfo identifies the authenticated user in the auth_ok event.
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// ServerEvent is the outbound envelope.
type ServerEvent struct {
	Type      ServerEventType `json:"type"`
	ChannelID uint            `json:"channel_id,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	User      *UserInfo       `json:"user,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// AuthOK builds the handshake success event.
func AuthOK(id uint, username string) ServerEvent {
	return ServerEvent{Type: EventAuthOK, User: &UserInfo{ID: id, Username: username}}
}

// AuthError builds the handshake failure event.
func AuthError(reason string) ServerEvent {
	return ServerEvent{Type: EventAuthError, Error: reason}
}

// ChannelMessage builds the channel delivery event for a canonical record.
func ChannelMessage(channelID uint, record json.RawMessage) ServerEvent {
	return ServerEvent{Type: EventChannelMessage, ChannelID: channelID, Message: record}
}

// DirectMessage builds the direct delivery event for a canonical record.
func DirectMessage(record json.RawMessage) ServerEvent {
	return ServerEvent{Type: EventDirectMessage, Message: record}
}
