// Package redischan provides a Redis pub/sub event channel, a lighter
// cross-process transport than Kafka for single-cluster deployments.
package redischan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

// wireMessage is the frame published to Redis: the watermill message uuid
// plus its payload.
type wireMessage struct {
	UUID    string          `json:"uuid"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher implements message.Publisher over Redis pub/sub.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a publisher on an existing Redis client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends each message to the topic's Redis channel. Redis pub/sub
// is fire-and-forget: subscribers attached later do not see earlier
// frames, which matches the live channel's no-replay contract.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	ctx := context.Background()

	for _, msg := range messages {
		frame, err := json.Marshal(wireMessage{
			UUID:    msg.UUID,
			Payload: json.RawMessage(msg.Payload),
		})
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(ctx, topic, frame).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

// Close releases nothing; the Redis client is owned by the caller.
func (p *Publisher) Close() error {
	return nil
}

// Subscriber implements message.Subscriber over Redis pub/sub.
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber creates a subscriber on an existing Redis client.
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe attaches to the topic's Redis channel until ctx is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	pubsub := s.client.Subscribe(ctx, topic)

	// Force the subscription onto the wire before returning, so frames
	// published right after Subscribe are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()

		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	out := make(chan *message.Message)

	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-pubsub.Channel():
				if !ok {
					return
				}

				var frame wireMessage
				if err := json.Unmarshal([]byte(m.Payload), &frame); err != nil {
					// Not one of ours; skip.
					continue
				}

				msg := message.NewMessage(frame.UUID, []byte(frame.Payload))
				msg.SetContext(ctx)

				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases nothing; the Redis client is owned by the caller.
func (s *Subscriber) Close() error {
	return nil
}
