package broadcast

import (
	"context"

	"solana-token-feed/internal/hub"
)

// HubPublisher pushes updates to websocket subscribers.
type HubPublisher struct {
	hub *hub.Hub
}

// NewHubPublisher creates a HubPublisher.
func NewHubPublisher(h *hub.Hub) *HubPublisher {
	return &HubPublisher{hub: h}
}

// Name implements Publisher.
func (p *HubPublisher) Name() string {
	return "websocket"
}

// Publish implements Publisher.
func (p *HubPublisher) Publish(_ context.Context, u Update) error {
	_, err := p.hub.Broadcast(hub.ChannelTokens, hub.TypeTokenUpdate, u)
	return err
}
