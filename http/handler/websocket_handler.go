package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/service"
	"github.com/lam0glia/marketplace-relay/websocket_buffer"
	"github.com/lam0glia/marketplace-relay/zlog"
)

type WebSocket struct {
	upgrader     websocket.Upgrader
	hub          *service.Hub
	uidGenerator domain.UIDGenerator
	bufferSize   int
}

// Serve upgrades the request and runs the connection inside the namespace
// named by the path. It returns once the client is gone.
func (h *WebSocket) Serve(c *gin.Context) {
	name := c.Param("namespace")
	if name == "" {
		name = domain.NamespaceRoot
	}

	ns, err := h.hub.Namespace(name)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownNamespace) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		abortWithInternalError(c, err)
		return
	}

	id, err := h.uidGenerator.NewUID()
	if err != nil {
		abortWithInternalError(c, err)
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		zlog.C(c.Request.Context()).Info("websocket upgrade failed", zap.Error(err))
		return
	}

	logger := zlog.C(c.Request.Context()).With(zap.String("namespace", name))
	conn := websocket_buffer.NewConnection(id, ws, h.bufferSize, logger)

	ns.Attach(conn)
	defer ns.Detach(id)

	conn.Run(func(event string, data json.RawMessage) {
		ns.Handle(id, event, data)
	})
}

func NewWebSocket(
	hub *service.Hub,
	uidGenerator domain.UIDGenerator,
	checkOrigin func(origin string) bool,
	bufferSize int,
) *WebSocket {
	return &WebSocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r.Header.Get("Origin"))
			},
		},
		hub:          hub,
		uidGenerator: uidGenerator,
		bufferSize:   bufferSize,
	}
}
