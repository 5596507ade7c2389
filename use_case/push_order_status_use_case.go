package use_case

import (
	"context"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/zlog"
)

type pushOrderStatus struct {
	pusher domain.OrderStatusPusher
}

// Execute relays a paid order to its seller. It reports whether the seller
// was online; an offline seller is not an error.
func (uc *pushOrderStatus) Execute(ctx context.Context, order domain.OrderStatus) (bool, error) {
	storeID, ok := order.StoreID()
	if !ok {
		return false, domain.ErrMissingStoreID
	}

	delivered := uc.pusher.PushOrderStatus(order)

	zlog.C(ctx).Info("ORDER_STATUS_PUSHED",
		zap.String("id_toko", storeID),
		zap.Any("order_number", order.OrderNumber()),
		zap.Bool("delivered", delivered))

	return delivered, nil
}

func NewPushOrderStatus(pusher domain.OrderStatusPusher) *pushOrderStatus {
	return &pushOrderStatus{
		pusher: pusher,
	}
}
