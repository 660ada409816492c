package usecase

import (
	"errors"
	"fmt"
)

// checkoutの失敗理由。handlerがHTTPステータスに変換する。
var (
	// カートが空（storeには触れない）
	ErrEmptyCart = errors.New("cart is empty")

	// 顧客情報（name/address/phone）が欠けている（storeには触れない）
	ErrInvalidCustomer = errors.New("customer name, address and phone are required")

	// カート行が不正（product_idまたはqtyが正でない）
	ErrInvalidCartLine = errors.New("cart line must have positive product_id and qty")

	// デッドロック/ロック待ちタイムアウト。
	// ロールバック済みなので再送してよい。
	ErrTxConflict = errors.New("checkout conflicted with a concurrent transaction, retry")
)

// 存在しない商品を参照した。全体をロールバック済み。
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// 在庫不足。全体をロールバック済み。
type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// 永続化層の予期しない失敗。呼び出し側には詳細を見せない。
type StoreIOError struct {
	Err error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("store failure: %v", e.Err)
}

func (e *StoreIOError) Unwrap() error {
	return e.Err
}
