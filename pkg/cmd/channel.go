package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/flowgrid/flowgrid/pkg/channels/gochannel"
	"github.com/flowgrid/flowgrid/pkg/channels/kafka"
	"github.com/flowgrid/flowgrid/pkg/channels/redischan"
)

// NewEventChannel builds the execution event publisher and subscriber
// for the given provider: "memory", "kafka" or "redis".
func NewEventChannel(provider string, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	switch provider {
	case "kafka":
		publisher, subscriber, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "flowgrid")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kafka event channel: %w", err)
		}

		return publisher, subscriber, nil
	case "redis":
		client, err := newRedisClient()
		if err != nil {
			return nil, nil, err
		}

		return redischan.NewPublisher(client), redischan.NewSubscriber(client), nil
	case "memory", "":
		publisher, subscriber, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create in-memory event channel: %w", err)
		}

		return publisher, subscriber, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event channel provider: %s", provider)
	}
}

func newRedisClient() (*redis.Client, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	return redis.NewClient(options), nil
}
