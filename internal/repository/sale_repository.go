package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 売上一覧の絞り込み
type SaleListQuery struct {
	Page  int
	Limit int
}

type SaleRepository interface {
	// ヘッダを保存して採番されたIDを返す
	Create(ctx context.Context, sale model.Sale) (int64, error)
	FindByID(ctx context.Context, saleID int64) (model.Sale, error)

	//新しい順
	ListRecent(ctx context.Context, q SaleListQuery) ([]model.Sale, int64, error)
}

type SaleItemRepository interface {
	CreateBulk(ctx context.Context, saleID int64, items []model.SaleItem) error
	ListBySaleID(ctx context.Context, saleID int64) ([]model.SaleItem, error)
	ListBySaleIDs(ctx context.Context, saleIDs []int64) (map[int64][]model.SaleItem, error)
}
