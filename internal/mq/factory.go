package mq

import (
	"context"
	"fmt"

	"github.com/flockshop/wishlist-api/config"
)

// NewFromConfig builds an MQ for the configured backend. It returns
// (nil, nil) when no backend is configured; callers treat a nil MQ as
// "publishing disabled".
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "pubsub":
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}
