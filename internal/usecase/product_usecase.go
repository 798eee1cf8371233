package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 商品カタログの業務ロジック。公開側と管理者側の両方を持つ。
type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
}

func NewProductUsecase(tx repo.TransactionManager, productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{tx: tx, productRepo: productRepo}
}

type ProductListInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// List は公開中（is_active かつ未削除）の商品一覧を返す。
func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewValidationError("invalid sort")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewValidationError("invalid min_price")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewValidationError("invalid max_price")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// GetDetail は商品詳細。非公開の商品は一般ユーザーには存在しない扱い。
func (u *ProductUsecase) GetDetail(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewValidationError("invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
}

func validateProductInput(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return NewValidationError("invalid name")
	}
	if in.Price.IsNegative() {
		return NewValidationError("price must not be negative")
	}
	if in.Stock < 0 {
		return NewValidationError("stock must not be negative")
	}
	if len(in.ImageURL) > 300 {
		return NewValidationError("image_url too long")
	}
	return nil
}

// Create は管理者による商品登録。
func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// Update は管理者による商品更新。価格変更は以後の注文にだけ効く
// （既存注文の明細はスナップショットなので変わらない）。
func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewValidationError("invalid id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.ImageURL = in.ImageURL
	p.IsActive = in.IsActive

	if err := u.productRepo.Update(ctx, p); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// Delete は論理削除。既存注文の明細からの参照は残る。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewValidationError("invalid id")
	}

	if err := u.productRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type UpdateStockInput struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// UpdateStock は管理者による在庫の直接設定。
// 調整履歴と監査ログを同じトランザクションで残す。
func (u *ProductUsecase) UpdateStock(ctx context.Context, adminUserID int64, productID int64, in UpdateStockInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid id")
	}
	if in.Stock < 0 {
		return model.Product{}, NewValidationError("stock must not be negative")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || len(reason) > 255 {
		return model.Product{}, NewValidationError("invalid reason")
	}

	var out model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		before := p.Stock
		if err := r.Inventory().SetStock(ctx, productID, in.Stock); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       in.Stock - before,
			Reason:      reason,
			CreatedAt:   time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON, _ := json.Marshal(map[string]int64{"stock": before})
		afterJSON, _ := json.Marshal(map[string]int64{"stock": in.Stock})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p.Stock = in.Stock
		out = p
		return nil
	})

	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}
