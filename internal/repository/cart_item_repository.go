package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// カート明細はユーザーが直接所有する。(user_id, product_id) で一意。
type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error)

	Create(ctx context.Context, item model.CartItem) (int64, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteAllByUserID(ctx context.Context, userID int64) error

	// カート内の総数量（バッジ表示用）
	SumQuantityByUserID(ctx context.Context, userID int64) (int64, error)
}
