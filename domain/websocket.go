package domain

import (
	"encoding/json"
	"errors"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Envelope is the wire frame used in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Connection interface {
	ID() string
	Send(payload []byte) error
	// Shutdown closes the connection because the server is going away.
	Shutdown()
}
