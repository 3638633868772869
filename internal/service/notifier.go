package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	commonredis "github.com/duaragha/cat-tracker-sub000/common/redis"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// Change actions.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// Change describes one write accepted by the API.
type Change struct {
	Kind   string    `json:"kind"` // "profile" or an entry kind
	Action string    `json:"action"`
	ID     string    `json:"id"`
	CatID  string    `json:"cat_id,omitempty"`
	At     time.Time `json:"at"`
}

// ProfileKind is Change.Kind for profile writes.
const ProfileKind = "profile"

// Notifier fans changes out to other clients. Failures are logged, never
// returned, so a broker outage cannot fail a write.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Change) {}

// Publisher is satisfied by *common/mqtt.Client.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier publishes each change as JSON on one topic.
type MQTTNotifier struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
}

func NewMQTTNotifier(pub Publisher, topic string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, topic: topic, qos: qos, logger: logger}
}

func (n *MQTTNotifier) Notify(_ context.Context, c Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		n.logger.Warn("Failed to encode change", zap.Error(err))
		return
	}
	if err := n.pub.Publish(n.topic, n.qos, false, payload); err != nil {
		n.logger.Warn("Failed to publish change to MQTT",
			zap.String("topic", n.topic), zap.String("kind", c.Kind), zap.String("id", c.ID), zap.Error(err))
	}
}

// StreamNotifier appends each change to a Redis stream.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

func NewStreamNotifier(client *redis.Client, stream string, logger *zap.Logger) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream, maxLen: 10000, logger: logger}
}

func (n *StreamNotifier) Notify(ctx context.Context, c Change) {
	if _, err := commonredis.PublishJSONToStream(ctx, n.client, n.stream, n.maxLen, c); err != nil {
		n.logger.Warn("Failed to publish change to stream",
			zap.String("stream", n.stream), zap.String("kind", c.Kind), zap.String("id", c.ID), zap.Error(err))
	}
}

// MultiNotifier notifies each member in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, c Change) {
	for _, n := range m {
		n.Notify(ctx, c)
	}
}

func entryChange(e domain.Entry, action string, at time.Time) Change {
	return Change{Kind: string(e.EntryKind()), Action: action, ID: e.EntryID(), CatID: e.OwnerID(), At: at}
}
