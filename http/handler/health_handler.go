package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lam0glia/marketplace-relay/domain"
)

const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

type Health struct {
	status func() domain.ServerStatus
	now    func() time.Time
}

func (h *Health) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(isoTimestamp),
	})
}

func (h *Health) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.status())
}

func NewHealth(status func() domain.ServerStatus) *Health {
	return &Health{
		status: status,
		now:    time.Now,
	}
}
