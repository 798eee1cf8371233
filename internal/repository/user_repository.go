package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// ロール変更・有効/無効・最終ログインの更新など
	Update(ctx context.Context, user model.User) error

	List(ctx context.Context, page int, limit int) ([]model.User, int64, error)
	CountAll(ctx context.Context) (int64, error)
}
