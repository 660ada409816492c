package usecase

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 売上レポート（管理者用）
type SaleUsecase struct {
	saleRepo     repo.SaleRepository
	saleItemRepo repo.SaleItemRepository
}

// DI
func NewSaleUsecase(saleRepo repo.SaleRepository, saleItemRepo repo.SaleItemRepository) *SaleUsecase {
	return &SaleUsecase{saleRepo: saleRepo, saleItemRepo: saleItemRepo}
}

type ListSalesInput struct {
	Page  int
	Limit int
}

type SaleItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"qty"`
}

type SaleOutput struct {
	ID              int64            `json:"id"`
	Reference       string           `json:"reference"`
	Total           decimal.Decimal  `json:"total"`
	CustomerName    string           `json:"customer_name"`
	CustomerAddress string           `json:"customer_address"`
	CustomerPhone   string           `json:"customer_phone"`
	CreatedAt       time.Time        `json:"created_at"`
	Items           []SaleItemOutput `json:"items"`
}

type SaleListOutput struct {
	Items []SaleOutput `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// 新しい順に売上を明細付きで返す。
func (u *SaleUsecase) ListRecentSales(ctx context.Context, in ListSalesInput) (SaleListOutput, error) {
	if in.Page < 1 {
		return SaleListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return SaleListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	sales, total, err := u.saleRepo.ListRecent(ctx, repo.SaleListQuery{
		Page:  in.Page,
		Limit: in.Limit,
	})
	if err != nil {
		return SaleListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	saleIDs := make([]int64, 0, len(sales))
	for _, s := range sales {
		saleIDs = append(saleIDs, s.ID)
	}

	itemsBySale, err := u.saleItemRepo.ListBySaleIDs(ctx, saleIDs)
	if err != nil {
		return SaleListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]SaleOutput, 0, len(sales))
	for _, s := range sales {
		outs = append(outs, toSaleOutput(s, itemsBySale[s.ID]))
	}

	return SaleListOutput{
		Items: outs,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *SaleUsecase) GetSaleDetail(ctx context.Context, saleID int64) (SaleOutput, error) {
	if saleID <= 0 {
		return SaleOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}

	s, err := u.saleRepo.FindByID(ctx, saleID)
	if err == repo.ErrNotFound {
		return SaleOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return SaleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.saleItemRepo.ListBySaleID(ctx, saleID)
	if err != nil {
		return SaleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toSaleOutput(s, items), nil
}

func toSaleOutput(s model.Sale, items []model.SaleItem) SaleOutput {
	outItems := make([]SaleItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, SaleItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return SaleOutput{
		ID:              s.ID,
		Reference:       s.Reference,
		Total:           s.Total,
		CustomerName:    s.CustomerName,
		CustomerAddress: s.CustomerAddress,
		CustomerPhone:   s.CustomerPhone,
		CreatedAt:       s.CreatedAt,
		Items:           outItems,
	}
}
