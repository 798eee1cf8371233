package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAdminOrderUsecase_List_InvalidStatus(t *testing.T) {
	tx := &TxManagerMock{Repos: &TxReposMock{}}

	uc := usecase.NewAdminOrderUsecase(tx, zap.NewNop())

	_, err := uc.List(context.Background(), usecase.AdminOrderListInput{
		Page: 1, Limit: 20, Status: "unknown",
	})
	assertErrContains(t, err, "invalid status")
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminOrderUsecase_ForceSetStatus_CancelRestoresStock(t *testing.T) {
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	inventory := new(InventoryRepoMock)
	audit := new(AuditRepoMock)

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		inventory:  inventory,
		auditLogs:  audit,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(100)).Return(testOrder(100, 7, model.OrderStatusPaid), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(100)).Return([]model.OrderItem{
		{ID: 1, OrderID: 100, ProductID: 10, Quantity: 2, Price: money("10.00")},
	}, nil)
	inventory.On("RestoreStock", mock.Anything, int64(10), int64(2)).Return(nil)
	orders.On("UpdateStatus", mock.Anything, int64(100), model.OrderStatusCancelled).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 99 &&
			l.Action == model.AuditActionForceOrderStatus &&
			l.ResourceType == model.AuditResourceOrder &&
			l.ResourceID == 100
	})).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, zap.NewNop())

	out, err := uc.ForceSetStatus(context.Background(), 99, 100, "cancelled")
	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)

	inventory.AssertCalled(t, "RestoreStock", mock.Anything, int64(10), int64(2))
	audit.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_ForceSetStatus_ShippedToCancelledNoRestore(t *testing.T) {
	// 出荷済みを強制キャンセルしても在庫は戻さない
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	inventory := new(InventoryRepoMock)
	audit := new(AuditRepoMock)

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		inventory:  inventory,
		auditLogs:  audit,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(100)).Return(testOrder(100, 7, model.OrderStatusShipped), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(100)).Return([]model.OrderItem{
		{ID: 1, OrderID: 100, ProductID: 10, Quantity: 2, Price: money("10.00")},
	}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(100), model.OrderStatusCancelled).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, zap.NewNop())

	out, err := uc.ForceSetStatus(context.Background(), 99, 100, "cancelled")
	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)

	inventory.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_ForceSetStatus_SameStatusIsNoop(t *testing.T) {
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	audit := new(AuditRepoMock)

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		auditLogs:  audit,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(100)).Return(testOrder(100, 7, model.OrderStatusPaid), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(100)).Return([]model.OrderItem{}, nil)

	uc := usecase.NewAdminOrderUsecase(tx, zap.NewNop())

	out, err := uc.ForceSetStatus(context.Background(), 99, 100, "paid")
	assert.NoError(t, err)
	assert.Equal(t, "paid", out.Status)

	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_ForceSetStatus_InvalidStatus(t *testing.T) {
	tx := &TxManagerMock{Repos: &TxReposMock{}}

	uc := usecase.NewAdminOrderUsecase(tx, zap.NewNop())

	_, err := uc.ForceSetStatus(context.Background(), 99, 100, "refunded")
	assertErrContains(t, err, "invalid status")
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminOrderUsecase_ForceSetStatus_AllowsUnrestrictedTransition(t *testing.T) {
	// ユーザーにはできない delivered → paid も管理者は可能
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	audit := new(AuditRepoMock)

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		auditLogs:  audit,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(100)).Return(testOrder(100, 7, model.OrderStatusDelivered), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(100)).Return([]model.OrderItem{}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(100), model.OrderStatusPaid).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, zap.NewNop())

	out, err := uc.ForceSetStatus(context.Background(), 99, 100, "paid")
	assert.NoError(t, err)
	assert.Equal(t, "paid", out.Status)
	audit.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}
