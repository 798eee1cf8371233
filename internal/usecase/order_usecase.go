package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/notification"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 通知はcommit後のベストエフォート。enqueueするだけで結果は待たない。
type OrderNotifier interface {
	OrderConfirmed(ev notification.OrderConfirmedEvent)
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	users    repo.UserRepository
	notifier OrderNotifier
	logger   *zap.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	notifier OrderNotifier,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, users: users, notifier: notifier, logger: logger}
}

type CheckoutInput struct {
	RecipientName string
	ContactPhone  string
	Address       string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	OrderNumber     string            `json:"order_number"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Checkout はカートを注文に変換する。全体が1トランザクション。
//  1. カート明細を読み、商品ごとに在庫の事前チェック
//  2. 現在価格で合計金額を計算
//  3. 注文＋明細（価格スナップショット）を作成
//  4. 在庫を条件付きUPDATEで減算（commit時の再チェック）
//  5. カートを空にする
//
// どこかで失敗したら全部rollback。注文も在庫変化もカート変化も残らない。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateCheckoutInput(in); err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewValidationError("cart is empty")
		}

		// 事前チェック＋現在価格での合計計算＋スナップショット組み立て。
		// 最初の在庫不足で全体を中断する（部分的な注文は作らない）。
		now := time.Now()
		total := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		outItems := make([]OrderItemOutput, 0, len(cartItems))

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewValidationError("product no longer available")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewValidationError(fmt.Sprintf("product %q is no longer available", p.Name))
			}
			if !p.IsInStock(ci.Quantity) {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   ci.Quantity,
					Available:   p.Stock,
				}
			}

			subtotal := p.Price.Mul(decimal.NewFromInt(ci.Quantity))
			total = total.Add(subtotal)

			orderItems = append(orderItems, model.OrderItem{
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				Price:     p.Price, // 注文時点の価格を固定する
				CreatedAt: now,
			})
			outItems = append(outItems, OrderItemOutput{
				ProductID: ci.ProductID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  ci.Quantity,
				Subtotal:  subtotal,
			})
		}

		order := model.Order{
			OrderNumber:     model.GenerateOrderNumber(now),
			UserID:          userID,
			TotalAmount:     total,
			Status:          model.OrderStatusPending,
			ShippingAddress: formatShippingAddress(in),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 在庫減算。事前チェック済みでも、commit時点の在庫で再判定する。
		// 同じ商品への同時checkoutはここで片方が弾かれる。
		for i, ci := range cartItems {
			ok, err := r.Inventory().ReduceStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				p, ferr := r.Products().FindByID(ctx, ci.ProductID)
				available := int64(0)
				name := outItems[i].Name
				if ferr == nil {
					available = p.Stock
					name = p.Name
				}
				return &InsufficientStockError{
					ProductID:   ci.ProductID,
					ProductName: name,
					Requested:   ci.Quantity,
					Available:   available,
				}
			}
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartItems().DeleteAllByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, nil)
		out.Items = outItems
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	// commit後の通知はベストエフォート。失敗してもcheckoutは成功のまま。
	u.notifyOrderConfirmed(ctx, userID, out)

	return out, nil
}

// Cancel はユーザー自身による注文キャンセル。
// pending/paid のみ許可し、明細ぶんの在庫を戻してcancelledにする。全体が1トランザクション。
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if !o.CanCancel() {
			return &InvalidStateTransitionError{Current: o.Status}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 在庫戻し。途中で失敗したら全体rollback（部分的な戻しは残らない）。
		for _, it := range items {
			if err := r.Inventory().RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		u.fillItemNames(ctx, r, out.Items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			oo := toOrderOutput(o, items)
			u.fillItemNames(ctx, r, oo.Items)
			outs = append(outs, oo)
		}

		out = OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		u.fillItemNames(ctx, r, out.Items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func validateCheckoutInput(in CheckoutInput) error {
	name := strings.TrimSpace(in.RecipientName)
	phone := strings.TrimSpace(in.ContactPhone)
	addr := strings.TrimSpace(in.Address)

	if name == "" || len(name) > 100 {
		return NewValidationError("invalid recipient_name")
	}
	if phone == "" || len(phone) > 30 {
		return NewValidationError("invalid contact_phone")
	}
	if addr == "" || len(addr) > 500 {
		return NewValidationError("invalid address")
	}
	return nil
}

// 配送先は自由テキスト1カラムに組み立てて保存する。
func formatShippingAddress(in CheckoutInput) string {
	return fmt.Sprintf("Recipient: %s\nPhone: %s\nAddress: %s",
		strings.TrimSpace(in.RecipientName),
		strings.TrimSpace(in.ContactPhone),
		strings.TrimSpace(in.Address))
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

// 明細には商品名を持たせていないので表示用に現在の名前を引く。
// 商品が消えていても明細自体は返す（名前は空のまま）。
func (u *OrderUsecase) fillItemNames(ctx context.Context, r repo.TxRepos, items []OrderItemOutput) {
	for i := range items {
		p, err := r.Products().FindByID(ctx, items[i].ProductID)
		if err != nil {
			continue
		}
		items[i].Name = p.Name
	}
}

func (u *OrderUsecase) notifyOrderConfirmed(ctx context.Context, userID int64, out OrderOutput) {
	if u.notifier == nil {
		return
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		u.logger.Warn("order confirmation skipped: user lookup failed",
			zap.Int64("user_id", userID),
			zap.String("order_number", out.OrderNumber),
			zap.Error(err))
		return
	}

	items := make([]notification.OrderConfirmedItem, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, notification.OrderConfirmedItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price.StringFixed(2),
		})
	}

	u.notifier.OrderConfirmed(notification.OrderConfirmedEvent{
		OrderNumber: out.OrderNumber,
		Email:       user.Email,
		TotalAmount: out.TotalAmount.StringFixed(2),
		Items:       items,
		PlacedAt:    out.CreatedAt,
	})
}
