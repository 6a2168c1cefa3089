package repository

import (
	"context"

	"app/internal/domain/model"
)

type ShippingAddressRepository interface {
	//注文と同じトランザクション内で作成する
	Create(ctx context.Context, addr model.ShippingAddress) (int64, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.ShippingAddress, error)
}
