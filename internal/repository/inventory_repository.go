package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算する。足りなければ false（減算は行われない）。
	ReduceStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル時）
	RestoreStock(ctx context.Context, productID int64, qty int64) error

	// 在庫の現在値を設定（管理者操作）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
