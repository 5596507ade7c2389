package domain

import (
	"context"
	"errors"
)

var ErrMissingStoreID = errors.New("id_toko is required")

// OrderStatus is relayed untouched; only id_toko and order_number are read.
type OrderStatus map[string]any

func (o OrderStatus) StoreID() (string, bool) {
	id := FormatID(o["id_toko"])

	return id, id != ""
}

func (o OrderStatus) OrderNumber() any {
	return o["order_number"]
}

type OrderStatusPusher interface {
	PushOrderStatus(order OrderStatus) bool
}

type PushOrderStatusUseCase interface {
	Execute(ctx context.Context, order OrderStatus) (bool, error)
}
