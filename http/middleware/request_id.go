package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lam0glia/marketplace-relay/zlog"
)

const requestIDHeader = "X-Request-Id"

// RequestID keeps the caller's request ID or generates one, and echoes it back.
func RequestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	c.Set(zlog.RequestIDKey, id)
	c.Header(requestIDHeader, id)

	c.Next()
}
