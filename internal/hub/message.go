package hub

import (
	"encoding/json"
	"time"
)

// Server message types.
const (
	TypeConnected    = "connected"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePong         = "pong"
	TypeError        = "error"
	TypeTokenUpdate  = "token_update"
)

// Client request types.
const (
	RequestSubscribe   = "subscribe"
	RequestUnsubscribe = "unsubscribe"
	RequestPing        = "ping"
)

// ChannelTokens carries record updates. Connections join it on connect.
const ChannelTokens = "tokens"

// Envelope is the single server-to-client message shape.
type Envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is a client-to-server message.
type Request struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}

// Welcome is the payload of a connected message.
type Welcome struct {
	ClientID string   `json:"clientId"`
	Channels []string `json:"channels"`
}

// ChannelAck is the payload of subscribe and unsubscribe acks.
type ChannelAck struct {
	Channel string `json:"channel"`
}

// ErrorPayload is the payload of an error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, data any, now time.Time) ([]byte, error) {
	return json.Marshal(Envelope{Type: msgType, Data: data, Timestamp: now.UTC()})
}
