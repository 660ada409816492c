package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type SaleGormRepository struct {
	db *gorm.DB
}

func NewSaleGormRepository(db *gorm.DB) *SaleGormRepository {
	return &SaleGormRepository{db: db}
}

// ヘッダを保存して採番されたIDを返す
func (r *SaleGormRepository) Create(ctx context.Context, sale model.Sale) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&sale).Error; err != nil {
		return 0, err
	}
	return sale.ID, nil
}

func (r *SaleGormRepository) FindByID(ctx context.Context, saleID int64) (model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).First(&s, saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Sale{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Sale{}, err
	}
	return s, nil
}

// 新しい順にページングで返す
func (r *SaleGormRepository) ListRecent(ctx context.Context, q repo.SaleListQuery) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Sale{})

	if err := tx.Count(&total).Error; err != nil {
		return []model.Sale{}, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	err := tx.Order("created_at desc").Order("id desc").
		Offset(offset).Limit(q.Limit).
		Find(&sales).Error
	if err != nil {
		return []model.Sale{}, 0, err
	}

	return sales, total, nil
}

type SaleItemGormRepository struct {
	db *gorm.DB
}

func NewSaleItemGormRepository(db *gorm.DB) *SaleItemGormRepository {
	return &SaleItemGormRepository{db: db}
}

func (r *SaleItemGormRepository) CreateBulk(ctx context.Context, saleID int64, items []model.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SaleID = saleID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	return nil
}

func (r *SaleItemGormRepository) ListBySaleID(ctx context.Context, saleID int64) ([]model.SaleItem, error) {
	var items []model.SaleItem
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.SaleItem{}, err
	}
	return items, nil
}

// レポート用。複数売上の明細をまとめて引いてsale_idごとに分ける。
func (r *SaleItemGormRepository) ListBySaleIDs(ctx context.Context, saleIDs []int64) (map[int64][]model.SaleItem, error) {
	out := make(map[int64][]model.SaleItem, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}

	var items []model.SaleItem
	err := r.db.WithContext(ctx).
		Where("sale_id IN ?", saleIDs).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		out[it.SaleID] = append(out[it.SaleID], it)
	}
	return out, nil
}
