package usecase

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 管理ダッシュボードの集計。
type StatsUsecase struct {
	orderRepo   repo.OrderRepository
	productRepo repo.ProductRepository
	userRepo    repo.UserRepository
}

func NewStatsUsecase(
	orderRepo repo.OrderRepository,
	productRepo repo.ProductRepository,
	userRepo repo.UserRepository,
) *StatsUsecase {
	return &StatsUsecase{orderRepo: orderRepo, productRepo: productRepo, userRepo: userRepo}
}

type DashboardStats struct {
	TotalOrders   int64           `json:"total_orders"`
	PendingOrders int64           `json:"pending_orders"`
	TotalProducts int64           `json:"total_products"`
	TotalUsers    int64           `json:"total_users"`
	// 売上はdeliveredの注文だけを数える
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

func (u *StatsUsecase) Dashboard(ctx context.Context) (DashboardStats, error) {
	totalOrders, err := u.orderRepo.CountAll(ctx)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	pending, err := u.orderRepo.CountByStatus(ctx, model.OrderStatusPending)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	products, err := u.productRepo.CountAll(ctx)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	users, err := u.userRepo.CountAll(ctx)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	revenue, err := u.orderRepo.SumTotalByStatus(ctx, model.OrderStatusDelivered)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return DashboardStats{
		TotalOrders:   totalOrders,
		PendingOrders: pending,
		TotalProducts: products,
		TotalUsers:    users,
		TotalRevenue:  revenue,
	}, nil
}
