package model

import "time"

// カートの明細。
// (user_id, product_id) は一意。同じ商品の追加は数量加算になる。
// 価格は持たない。カートの金額は常に現在の商品価格で計算する。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uq_cart_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:uq_cart_user_product" json:"product_id"`
	Quantity  int64     `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
