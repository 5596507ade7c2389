package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/zlog"
)

type Handler struct {
	WebSocket *WebSocket
	Order     *Order
	Health    *Health
}

func NewHandler(
	WebSocket *WebSocket,
	Order *Order,
	Health *Health,
) *Handler {
	return &Handler{
		WebSocket: WebSocket,
		Order:     Order,
		Health:    Health,
	}
}

func abortWithInternalError(c *gin.Context, err error) {
	zlog.C(c.Request.Context()).Error("internal error", zap.Error(err))
	c.AbortWithStatus(http.StatusInternalServerError)
}
