package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"campfire/internal/protocol"
)

// Dispatcher routes publish notifications to every session subscribed to
// the target room. Delivery is fire-and-forget relative to connectivity:
// the record is already durable before a notification arrives, an empty
// room is a silent no-op, and a subscriber that vanished mid-dispatch is
// treated as not currently connected.
//
// Publishes are serialized by a single mutex so that, for a fixed room,
// every subscriber observes deliveries in the order the dispatcher
// processed them.
type Dispatcher struct {
	mu       sync.Mutex
	registry *RoomRegistry
	logger   *slog.Logger
	metrics  *Metrics
}

// NewDispatcher constructs a dispatcher over the given registry.
func NewDispatcher(registry *RoomRegistry, logger *slog.Logger, metrics *Metrics) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger, metrics: metrics}
}

// PublishChannel delivers a canonical record to every current member of the
// channel's room. The sender receives its own copy only if it is itself
// subscribed, the same as any other member. Returns the delivered count.
func (d *Dispatcher) PublishChannel(channelID uint, record json.RawMessage) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	ev := protocol.ChannelMessage(channelID, record)
	delivered := d.deliver(ChannelRoom(channelID), ev, kindChannel)
	d.logger.Debug("channel message dispatched", "channel_id", channelID, "delivered", delivered)
	return delivered
}

// PublishDirect delivers a canonical record to every current member of the
// receiver's mailbox room and, unconditionally, echoes it to the sender's
// own session. Unlike channel delivery, the sender's copy does not depend
// on any subscription; clients rely on the echo to render their own
// outgoing messages.
func (d *Dispatcher) PublishDirect(sender *Session, receiverID uint, record json.RawMessage) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	ev := protocol.DirectMessage(record)
	delivered := d.deliver(MailboxRoom(receiverID), ev, kindDirect)
	if sender != nil {
		if sender.enqueue(ev) {
			delivered++
			d.metrics.DeliveredMessages.WithLabelValues(kindDirect).Inc()
		} else {
			d.metrics.DroppedMessages.WithLabelValues(kindDirect).Inc()
		}
	}
	d.logger.Debug("direct message dispatched", "receiver_id", receiverID, "delivered", delivered)
	return delivered
}

func (d *Dispatcher) deliver(key RoomKey, ev protocol.ServerEvent, kind string) int {
	delivered := 0
	for _, member := range d.registry.MembersOf(key) {
		if member.enqueue(ev) {
			delivered++
			d.metrics.DeliveredMessages.WithLabelValues(kind).Inc()
		} else {
			d.metrics.DroppedMessages.WithLabelValues(kind).Inc()
		}
	}
	return delivered
}

const (
	kindChannel = "channel"
	kindDirect  = "direct"
)
