package websocket_buffer

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/internal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024

	DefaultSendBufferSize = 256
)

// MessageHandler receives every decoded inbound envelope.
type MessageHandler func(event string, data json.RawMessage)

// Connection is one client websocket. Outbound frames go through a buffered
// channel drained by a single writer goroutine; a client that falls behind
// the buffer is closed instead of slowing everyone else. Only the writer
// touches the socket for writing, so closing never waits on a slow peer.
type Connection struct {
	id     string
	ws     *websocket.Conn
	logger *zap.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	closeCode   int
	closeReason string
}

func NewConnection(id string, ws *websocket.Conn, bufferSize int, logger *zap.Logger) *Connection {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBufferSize
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Connection{
		id:     id,
		ws:     ws,
		logger: logger.With(zap.String("conn_id", id)),
		send:   make(chan []byte, bufferSize),
		done:   make(chan struct{}),
	}

	go c.writeLoop()

	return c
}

func (c *Connection) ID() string {
	return c.id
}

// Send enqueues payload without blocking.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.logger.Warn("closing slow connection", zap.Int("buffered", len(c.send)))
		c.Close(websocket.ClosePolicyViolation, domain.ErrSendBufferFull.Error())
		return domain.ErrSendBufferFull
	}
}

// Close marks the connection closed and returns at once. The writer sends
// the close frame with code and tears the socket down. Only the first call
// counts.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

func (c *Connection) Shutdown() {
	c.Close(websocket.CloseGoingAway, "server shutting down")
}

func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Run reads until the peer goes away or the connection is closed.
func (c *Connection) Run(onMessage MessageHandler) {
	c.readLoop(onMessage)
	c.Close(websocket.CloseNormalClosure, "")
}

func (c *Connection) readLoop(onMessage MessageHandler) {
	defer internal.LogGoroutineClosed(c.logger, "Connection.readLoop")

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.logger.Debug("close message received",
					zap.Int("code", closeErr.Code),
					zap.String("text", closeErr.Text))
			} else {
				select {
				case <-c.done:
				default:
					c.logger.Info("read peer failed", zap.Error(err))
				}
			}

			return
		}

		var envelope domain.Envelope
		if err = json.Unmarshal(payload, &envelope); err != nil || envelope.Event == "" {
			c.logger.Warn("invalid frame dropped", zap.Error(err), zap.ByteString("payload", payload))
			continue
		}

		onMessage(envelope.Event, envelope.Data)
	}
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		internal.LogGoroutineClosed(c.logger, "Connection.writeLoop")
	}()

	for {
		select {
		case <-c.done:
			// closeCode is written before done is closed.
			deadline := time.Now().Add(writeWait)
			_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason), deadline)
			return
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				c.logger.Info("write peer failed", zap.Error(err))
				c.Close(websocket.CloseInternalServerErr, "")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Info("send ping failed", zap.Error(err))
				}
				c.Close(websocket.CloseInternalServerErr, "")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.ws.WriteMessage(messageType, payload)
}
