package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/sabo/internal/logging"
)

const channelPrefix = "sabo:doc:"

// Channel is the Redis channel carrying userID's changes.
func Channel(userID string) string {
	return channelPrefix + userID
}

// message is the wire form on Redis. Instance lets a server skip its own
// publications, which it already delivered locally.
type message struct {
	Instance string `json:"instance"`
	Event    Event  `json:"event"`
}

func encodeMessage(instance string, ev Event) ([]byte, error) {
	return json.Marshal(message{Instance: instance, Event: ev})
}

func decodeMessage(channel, payload string) (message, error) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return message{}, fmt.Errorf("decode broker message: %w", err)
	}
	user := strings.TrimPrefix(channel, channelPrefix)
	if m.Event.UserID == "" {
		m.Event.UserID = user
	}
	if m.Event.UserID != user {
		return message{}, fmt.Errorf("broker message for %q on channel %q", m.Event.UserID, channel)
	}
	return m, nil
}

// Redis delivers locally and relays through Redis pub/sub.
type Redis struct {
	*Local
	client   *redis.Client
	instance string
	logger   logging.Logger

	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}

	hookMu    sync.RWMutex
	onForeign func(Event)
}

func NewRedis(client *redis.Client, instance string, logger logging.Logger) *Redis {
	return &Redis{
		Local:    NewLocal(),
		client:   client,
		instance: instance,
		logger:   logger.With("module", "broker"),
	}
}

// NewRedisFromURL parses url (redis://host:port/db) and builds the broker.
func NewRedisFromURL(url, instance string, logger logging.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opts), instance, logger), nil
}

// Start subscribes to every document channel and relays foreign events to
// local subscribers until Close.
func (b *Redis) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	ps := b.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		_ = ps.Close()
		return fmt.Errorf("subscribe to redis: %w", err)
	}
	b.pubsub = ps
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.relay(ctx, msg.Channel, msg.Payload)
			}
		}
	}()
	b.logger.Info(ctx, "relaying document changes through redis", "instance", b.instance)
	return nil
}

func (b *Redis) relay(ctx context.Context, channel, payload string) {
	m, err := decodeMessage(channel, payload)
	if err != nil {
		b.logger.Warn(ctx, "dropping broker message", "error", err)
		return
	}
	if m.Instance == b.instance {
		return
	}
	b.hookMu.RLock()
	fn := b.onForeign
	b.hookMu.RUnlock()
	if fn != nil {
		fn(m.Event)
	}
	b.deliver(m.Event)
}

// OnForeign registers fn to see every change published by another
// instance, before local subscribers do.
func (b *Redis) OnForeign(fn func(Event)) {
	b.hookMu.Lock()
	defer b.hookMu.Unlock()
	b.onForeign = fn
}

// Publish delivers locally first, so local watchers are served even when
// Redis is down.
func (b *Redis) Publish(ctx context.Context, ev Event) error {
	b.deliver(ev)
	payload, err := encodeMessage(b.instance, ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, Channel(ev.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

func (b *Redis) Close() error {
	if b.cancel != nil {
		b.cancel()
		_ = b.pubsub.Close()
		<-b.done
	}
	_ = b.Local.Close()
	return b.client.Close()
}
