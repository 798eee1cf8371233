package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProductUsecase_GetDetail_HidesInactive(t *testing.T) {
	products := new(ProductRepoMock)

	p := testProduct(10, "Coffee Beans", "10.00", 5)
	p.IsActive = false
	products.On("FindByID", mock.Anything, int64(10)).Return(p, nil)

	uc := usecase.NewProductUsecase(&TxManagerMock{}, products)

	_, err := uc.GetDetail(context.Background(), 10)
	assertErrContains(t, err, "not found")
}

func TestProductUsecase_Create_RejectsNegativePrice(t *testing.T) {
	products := new(ProductRepoMock)

	uc := usecase.NewProductUsecase(&TxManagerMock{}, products)

	_, err := uc.Create(context.Background(), usecase.ProductInput{
		Name:  "Coffee Beans",
		Price: money("-1.00"),
		Stock: 5,
	})
	assertErrContains(t, err, "price must not be negative")
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_List_InvalidSort(t *testing.T) {
	uc := usecase.NewProductUsecase(&TxManagerMock{}, new(ProductRepoMock))

	_, err := uc.List(context.Background(), usecase.ProductListInput{
		Page: 1, Limit: 20, Sort: "popularity",
	})
	assertErrContains(t, err, "invalid sort")
}

func TestProductUsecase_UpdateStock_WritesAdjustmentAndAudit(t *testing.T) {
	products := new(ProductRepoMock)
	inventory := new(InventoryRepoMock)
	audit := new(AuditRepoMock)

	tx := &TxManagerMock{Repos: &TxReposMock{
		products:  products,
		inventory: inventory,
		auditLogs: audit,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	products.On("FindByID", mock.Anything, int64(10)).Return(testProduct(10, "Coffee Beans", "10.00", 5), nil)
	inventory.On("SetStock", mock.Anything, int64(10), int64(20)).Return(nil)
	inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		// 5 → 20 なので delta は +15
		return a.ProductID == 10 && a.AdminUserID == 99 && a.Delta == 15 && a.Reason == "restock"
	})).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock && l.ResourceID == 10
	})).Return(nil)

	uc := usecase.NewProductUsecase(tx, products)

	out, err := uc.UpdateStock(context.Background(), 99, 10, usecase.UpdateStockInput{
		Stock:  20,
		Reason: "restock",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(20), out.Stock)
}

func TestProductUsecase_UpdateStock_RequiresReason(t *testing.T) {
	tx := &TxManagerMock{Repos: &TxReposMock{}}

	uc := usecase.NewProductUsecase(tx, new(ProductRepoMock))

	_, err := uc.UpdateStock(context.Background(), 99, 10, usecase.UpdateStockInput{Stock: 20})
	assertErrContains(t, err, "invalid reason")
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestProductUsecase_Delete_NotFound(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("SoftDelete", mock.Anything, int64(999)).Return(repo.ErrNotFound)

	uc := usecase.NewProductUsecase(&TxManagerMock{}, products)

	err := uc.Delete(context.Background(), 999)
	assertErrContains(t, err, "not found")
}
