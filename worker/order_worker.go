package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/internal"
	"github.com/lam0glia/marketplace-relay/zlog"
)

// orderStatus feeds order-status events from the broker into the same use
// case the webhook uses.
type orderStatus struct {
	deliveries      <-chan amqp.Delivery
	pushOrderStatus domain.PushOrderStatusUseCase
	logger          *zap.Logger
	done            chan struct{}
}

func (w *orderStatus) Run(ctx context.Context) {
	defer func() {
		internal.LogGoroutineClosed(w.logger, "OrderStatus.Run")
		close(w.done)
	}()

	ctx = zlog.WithContext(ctx, w.logger)

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-w.deliveries:
			if !ok {
				return
			}

			w.handle(ctx, d)
		}
	}
}

func (w *orderStatus) Done() <-chan struct{} {
	return w.done
}

func (w *orderStatus) handle(ctx context.Context, d amqp.Delivery) {
	var order domain.OrderStatus

	dec := json.NewDecoder(bytes.NewReader(d.Body))
	dec.UseNumber()

	if err := dec.Decode(&order); err != nil || order == nil {
		w.logger.Warn("order status rejected: invalid json", zap.Error(err), zap.ByteString("body", d.Body))
		w.reject(d)
		return
	}

	if _, err := w.pushOrderStatus.Execute(ctx, order); err != nil {
		if errors.Is(err, domain.ErrMissingStoreID) {
			w.logger.Warn("order status rejected", zap.Error(err), zap.ByteString("body", d.Body))
		} else {
			w.logger.Error("failed to push order status", zap.Error(err))
		}

		w.reject(d)
		return
	}

	if err := d.Ack(false); err != nil {
		w.logger.Error("failed to ack order status", zap.Error(err))
	}
}

func (w *orderStatus) reject(d amqp.Delivery) {
	if err := d.Reject(false); err != nil {
		w.logger.Error("failed to reject order status", zap.Error(err))
	}
}

func NewOrderStatus(
	deliveries <-chan amqp.Delivery,
	pushOrderStatus domain.PushOrderStatusUseCase,
	logger *zap.Logger,
) *orderStatus {
	return &orderStatus{
		deliveries:      deliveries,
		pushOrderStatus: pushOrderStatus,
		logger:          logger,
		done:            make(chan struct{}),
	}
}
