package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 入力不正（400）
func NewValidationError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 在庫不足。要求数と現在庫の両方を持ち回る。
// 黙って数量を丸めることはしない。
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// キャンセルできない状態での遷移要求。現在のstatusを持ち回る。
type InvalidStateTransitionError struct {
	Current model.OrderStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("order cannot be cancelled: current status is %q", e.Current)
}
