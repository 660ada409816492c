package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ID生成の約束（uuid）
type ReferenceGenerator interface {
	NewReference() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type CheckoutUsecase struct {
	tx     repo.TransactionManager
	refGen ReferenceGenerator
	clock  Clock
}

// DI
func NewCheckoutUsecase(tx repo.TransactionManager, refGen ReferenceGenerator, clock Clock) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, refGen: refGen, clock: clock}
}

// クライアントから来るカート1行。
// Priceが来ても信用せず必ず破棄する。
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"qty"`
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CheckoutInput struct {
	Lines    []CartLine
	Customer CustomerInfo
}

type CheckoutItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"qty"`
}

type CheckoutOutput struct {
	SaleID    int64                `json:"sale_id"`
	Reference string               `json:"reference"`
	Total     decimal.Decimal      `json:"total"`
	CreatedAt time.Time            `json:"created_at"`
	Items     []CheckoutItemOutput `json:"items"`
}

// Checkout はカートを検証して在庫を確保し、売上を原子的に記録する。
//
// 1トランザクションの中で、カート行を呼び出し順に処理する：
// 行ロック付きで商品を読み、在庫を確認し、DB価格で小計を積み、
// 在庫を即時に書き戻す（同一商品が複数行あっても二重引当しない）。
// 全行が通ったらヘッダと明細を保存してcommitする。
// どこかで失敗したら全てロールバックして理由を返す。
func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	//事前検証。storeには触れない。
	if len(in.Lines) == 0 {
		return CheckoutOutput{}, ErrEmptyCart
	}
	if isBlank(in.Customer.Name) || isBlank(in.Customer.Address) || isBlank(in.Customer.Phone) {
		return CheckoutOutput{}, ErrInvalidCustomer
	}
	for _, l := range in.Lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return CheckoutOutput{}, ErrInvalidCartLine
		}
	}

	var out CheckoutOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		total := decimal.Zero
		items := make([]model.SaleItem, 0, len(in.Lines))

		for _, line := range in.Lines {
			//行ロック付きで読む。価格も在庫もこのロック下の値だけを使う。
			p, err := r.Products().FindByIDForUpdate(ctx, line.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &ProductNotFoundError{ProductID: line.ProductID}
			}
			if err != nil {
				return err
			}

			if p.Stock < line.Quantity {
				return &InsufficientStockError{
					ProductID: line.ProductID,
					Available: p.Stock,
					Requested: line.Quantity,
				}
			}

			//DB価格のスナップショット。クライアント価格は使わない。
			linePrice := p.Price
			total = total.Add(linePrice.Mul(decimal.NewFromInt(line.Quantity)))

			//即時に書き戻す。同一商品の後続行は減算後の在庫を見る。
			if err := r.Inventory().SetStock(ctx, line.ProductID, p.Stock-line.Quantity); err != nil {
				return err
			}

			items = append(items, model.SaleItem{
				ProductID:           line.ProductID,
				ProductNameSnapshot: p.Name,
				Price:               linePrice,
				Quantity:            line.Quantity,
			})
		}

		now := u.clock.Now()
		sale := model.Sale{
			Reference:       u.refGen.NewReference(),
			Total:           total,
			CustomerName:    strings.TrimSpace(in.Customer.Name),
			CustomerAddress: strings.TrimSpace(in.Customer.Address),
			CustomerPhone:   strings.TrimSpace(in.Customer.Phone),
			CreatedAt:       now,
		}

		saleID, err := r.Sales().Create(ctx, sale)
		if err != nil {
			return err
		}

		if err := r.SaleItems().CreateBulk(ctx, saleID, items); err != nil {
			return err
		}

		out = CheckoutOutput{
			SaleID:    saleID,
			Reference: sale.Reference,
			Total:     total,
			CreatedAt: now,
			Items:     toCheckoutItems(items),
		}
		return nil
	})

	if err != nil {
		return CheckoutOutput{}, classifyCheckoutError(err)
	}
	return out, nil
}

// 業務上の失敗はそのまま、DB起因はconflictかStoreIOに分類する。
func classifyCheckoutError(err error) error {
	var notFound *ProductNotFoundError
	var noStock *InsufficientStockError
	if errors.As(err, &notFound) || errors.As(err, &noStock) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01", "55P03": // deadlock_detected / lock_not_available
			return ErrTxConflict
		}
	}

	return &StoreIOError{Err: err}
}

func toCheckoutItems(items []model.SaleItem) []CheckoutItemOutput {
	out := make([]CheckoutItemOutput, 0, len(items))
	for _, it := range items {
		out = append(out, CheckoutItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
