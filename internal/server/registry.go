// Package server hosts the HTTP gateway and the real-time delivery core:
// room bookkeeping, websocket session lifecycle, and message fan-out.
package server

import (
	"fmt"
	"sync"
)

// RoomKind discriminates the two fan-out targets.
type RoomKind uint8

const (
	// RoomChannel is a shared channel room any authenticated session may join.
	RoomChannel RoomKind = iota + 1
	// RoomMailbox is the per-user room used for direct-message delivery. It
	// has exactly one legitimate subscriber: the user it belongs to.
	RoomMailbox
)

// RoomKey identifies a fan-out target.
type RoomKey struct {
	Kind RoomKind
	ID   uint
}

// ChannelRoom builds the key for a channel's room.
func ChannelRoom(channelID uint) RoomKey {
	return RoomKey{Kind: RoomChannel, ID: channelID}
}

// MailboxRoom builds the key for a user's personal mailbox room.
func MailboxRoom(userID uint) RoomKey {
	return RoomKey{Kind: RoomMailbox, ID: userID}
}

func (k RoomKey) String() string {
	switch k.Kind {
	case RoomChannel:
		return fmt.Sprintf("channel:%d", k.ID)
	case RoomMailbox:
		return fmt.Sprintf("mailbox:%d", k.ID)
	default:
		return fmt.Sprintf("room:%d:%d", k.Kind, k.ID)
	}
}

// RoomRegistry maps room keys to the sessions currently subscribed to them.
// It is the only shared mutable state in the delivery core; all access is
// serialized through one RWMutex so that subscribe, unsubscribe, and
// membership snapshots are observed atomically with respect to a concurrent
// dispatch. The registry does no authorization: any session may be
// subscribed to any channel room, and mailbox rooms only ever receive their
// owning session because the handshake path is the sole caller.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[RoomKey]map[string]*Session
}

// NewRoomRegistry initializes an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[RoomKey]map[string]*Session)}
}

// Subscribe adds the session to the room's subscriber set. Subscribing an
// already-subscribed session is a no-op, so a session never appears twice.
func (r *RoomRegistry) Subscribe(key RoomKey, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[key]; !ok {
		r.rooms[key] = make(map[string]*Session)
	}
	r.rooms[key][s.id] = s
}

// Unsubscribe removes the session from the room if present. Empty rooms are
// pruned so transient rooms do not accumulate.
func (r *RoomRegistry) Unsubscribe(key RoomKey, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[key]; ok {
		delete(members, s.id)
		if len(members) == 0 {
			delete(r.rooms, key)
		}
	}
}

// MembersOf returns a snapshot of the room's current subscribers. An
// unknown or empty room yields an empty slice; that is a normal transient
// state, never an error. Dispatch iterates the snapshot so removal during
// fan-out is safe.
func (r *RoomRegistry) MembersOf(key RoomKey) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[key]
	snapshot := make([]*Session, 0, len(members))
	for _, s := range members {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// RoomCount reports how many rooms currently have subscribers.
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
