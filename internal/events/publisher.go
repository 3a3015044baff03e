// Package events announces complaint lifecycle changes on Redis Pub/Sub so the
// gateway can refresh its view without polling.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	TypeComplaintCreated       = "complaint.created"
	TypeComplaintStatusChanged = "complaint.status_changed"
)

// Event is the JSON payload published for every lifecycle change.
type Event struct {
	Type           string    `json:"type"`
	Department     string    `json:"department"`
	ComplaintID    string    `json:"complaintId"`
	RequestID      string    `json:"requestId"`
	CitizenID      string    `json:"citizenId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	ProcessedBy    *string   `json:"processedBy,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher publishes events as JSON on a single channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish serializes event and sends it to the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "events: marshal")
	}

	if err := p.client.Publish(ctx, p.channel, string(msgBytes)).Err(); err != nil {
		return errors.Wrapf(err, "events: publish %s", event.Type)
	}
	return nil
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NewRedisClient connects to Redis and checks the connection with a short ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "events: ping redis at %s", addr)
	}
	return client, nil
}
