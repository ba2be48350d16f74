package mq

import (
	"context"
	"encoding/json"
	"time"
)

// InvitationsChannel is the channel invitation events are published to.
const InvitationsChannel = "wishlist.invitations"

// InvitationEvent describes invitations freshly added to a wishlist. A
// downstream consumer (for example a mail worker) turns these into
// deliveries; the API server itself never sends mail.
type InvitationEvent struct {
	WishlistID   int       `json:"wishlistId"`
	WishlistName string    `json:"wishlistName"`
	InvitedBy    int       `json:"invitedBy"`
	Emails       []string  `json:"emails"`
	InvitedAt    time.Time `json:"invitedAt"`
}

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// PublishInvitations sends an invitation event to the invitations channel.
func (m *MQ) PublishInvitations(ctx context.Context, event InvitationEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return m.backend.Publish(ctx, InvitationsChannel, data, map[string]string{
		"event": "wishlist.invited",
	})
}

// SubscribeInvitations consumes invitation events from the invitations
// channel, decoding each message before handing it to the handler.
func (m *MQ) SubscribeInvitations(ctx context.Context, handler func(ctx context.Context, event InvitationEvent) error) error {
	return m.backend.Subscribe(ctx, InvitationsChannel, func(ctx context.Context, msg Message) error {
		var event InvitationEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// Undecodable messages are dropped rather than redelivered forever.
			return nil
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
