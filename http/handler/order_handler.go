package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lam0glia/marketplace-relay/domain"
)

type Order struct {
	pushOrderStatus domain.PushOrderStatusUseCase
}

// PushStatus is the webhook the marketplace backend calls once an order is
// paid.
func (h *Order) PushStatus(c *gin.Context) {
	var order domain.OrderStatus
	if err := c.ShouldBindJSON(&order); err != nil || order == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "body must be a JSON object",
		})
		return
	}

	delivered, err := h.pushOrderStatus.Execute(c.Request.Context(), order)
	if err != nil {
		if errors.Is(err, domain.ErrMissingStoreID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": err.Error(),
			})
			return
		}

		abortWithInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Order status update pushed",
		"delivered": delivered,
	})
}

func NewOrder(pushOrderStatus domain.PushOrderStatusUseCase) *Order {
	return &Order{
		pushOrderStatus: pushOrderStatus,
	}
}
