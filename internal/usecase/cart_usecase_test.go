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

func TestCartUsecase_AddToCart_NewItem(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	products.On("FindByID", mock.Anything, int64(10)).Return(testProduct(10, "Coffee Beans", "10.00", 5), nil)
	cartItems.On("FindByUserAndProduct", mock.Anything, int64(7), int64(10)).Return(model.CartItem{}, repo.ErrNotFound)
	cartItems.On("Create", mock.Anything, mock.MatchedBy(func(item model.CartItem) bool {
		return item.UserID == 7 && item.ProductID == 10 && item.Quantity == 1
	})).Return(int64(1), nil)
	cartItems.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 1},
	}, nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	out, err := uc.AddToCart(context.Background(), 7, 10)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Total.Equal(money("10.00")))
}

func TestCartUsecase_AddToCart_IncrementsExisting(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	products.On("FindByID", mock.Anything, int64(10)).Return(testProduct(10, "Coffee Beans", "10.00", 5), nil)
	cartItems.On("FindByUserAndProduct", mock.Anything, int64(7), int64(10)).Return(model.CartItem{
		ID: 1, UserID: 7, ProductID: 10, Quantity: 2,
	}, nil)
	cartItems.On("UpdateQuantity", mock.Anything, int64(1), int64(3)).Return(nil)
	cartItems.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 3},
	}, nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	out, err := uc.AddToCart(context.Background(), 7, 10)
	assert.NoError(t, err)
	assert.True(t, out.Total.Equal(money("30.00")))
	cartItems.AssertCalled(t, "UpdateQuantity", mock.Anything, int64(1), int64(3))
}

func TestCartUsecase_AddToCart_ExceedsStock(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	// stock 2 のところに既に 2 個入っていて、さらに +1 しようとする
	products.On("FindByID", mock.Anything, int64(10)).Return(testProduct(10, "Coffee Beans", "10.00", 2), nil)
	cartItems.On("FindByUserAndProduct", mock.Anything, int64(7), int64(10)).Return(model.CartItem{
		ID: 1, UserID: 7, ProductID: 10, Quantity: 2,
	}, nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	_, err := uc.AddToCart(context.Background(), 7, 10)

	var stockErr *usecase.InsufficientStockError
	if assert.ErrorAs(t, err, &stockErr) {
		assert.Equal(t, int64(3), stockErr.Requested)
		assert.Equal(t, int64(2), stockErr.Available)
	}
	cartItems.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_InactiveProduct(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	p := testProduct(10, "Coffee Beans", "10.00", 5)
	p.IsActive = false
	products.On("FindByID", mock.Anything, int64(10)).Return(p, nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	_, err := uc.AddToCart(context.Background(), 7, 10)
	assertErrContains(t, err, "product not available")
}

func TestCartUsecase_UpdateQuantity_NotOwner(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	// user 8 の明細を user 7 が触る
	cartItems.On("FindByID", mock.Anything, int64(1)).Return(model.CartItem{
		ID: 1, UserID: 8, ProductID: 10, Quantity: 2,
	}, nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	_, err := uc.UpdateQuantity(context.Background(), 7, 1, 3)
	assertErrContains(t, err, "not found")
	cartItems.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_UpdateQuantity_ZeroRejected(t *testing.T) {
	uc := usecase.NewCartUsecase(new(CartItemRepoMock), new(ProductRepoMock))

	_, err := uc.UpdateQuantity(context.Background(), 7, 1, 0)
	assertErrContains(t, err, "quantity must be at least 1")
}

func TestCartUsecase_GetCart_UsesLivePrices(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	// カート投入後に値上げされた想定。現在価格の 12.50 で計算される。
	cartItems.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 2},
	}, nil)
	products.On("FindByID", mock.Anything, int64(10)).Return(testProduct(10, "Coffee Beans", "12.50", 5), nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	out, err := uc.GetCart(context.Background(), 7)
	assert.NoError(t, err)
	assert.True(t, out.Total.Equal(money("25.00")))
}

func TestCartUsecase_GetCart_SkipsInactiveProducts(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	inactive := testProduct(11, "Old Blend", "5.00", 5)
	inactive.IsActive = false

	cartItems.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 1},
		{ID: 2, UserID: 7, ProductID: 11, Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(10)).Return(testProduct(10, "Coffee Beans", "10.00", 5), nil)
	products.On("FindByID", mock.Anything, int64(11)).Return(inactive, nil)

	uc := usecase.NewCartUsecase(cartItems, products)

	out, err := uc.GetCart(context.Background(), 7)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Total.Equal(money("10.00")))
}

func TestCartUsecase_ClearCart(t *testing.T) {
	cartItems := new(CartItemRepoMock)

	cartItems.On("DeleteAllByUserID", mock.Anything, int64(7)).Return(nil)

	uc := usecase.NewCartUsecase(cartItems, new(ProductRepoMock))

	out, err := uc.ClearCart(context.Background(), 7)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.True(t, out.Total.IsZero())
}
