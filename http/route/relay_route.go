package route

import (
	"github.com/gin-gonic/gin"

	"github.com/lam0glia/marketplace-relay/http/handler"
)

func relayRouter(r gin.IRouter, h *handler.WebSocket) {
	r.GET("/ws", h.Serve)
	r.GET("/ws/:namespace", h.Serve)
}
