package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// インメモリのstore。WithinTxをmutexで直列化して
// 行ロック相当の振る舞いを再現する。
type memStore struct {
	mu       sync.Mutex
	products map[int64]model.Product
	sales    []model.Sale
	items    map[int64][]model.SaleItem
	nextSale int64
}

func newMemStore(products ...model.Product) *memStore {
	s := &memStore{
		products: map[int64]model.Product{},
		items:    map[int64][]model.SaleItem{},
		nextSale: 1,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// スナップショットを取り、fnが失敗したら戻す（ロールバック）。
func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := make(map[int64]model.Product, len(s.products))
	for id, p := range s.products {
		before[id] = p
	}
	beforeSales := len(s.sales)

	if err := fn(&memTxRepos{store: s}); err != nil {
		s.products = before
		s.sales = s.sales[:beforeSales]
		return err
	}
	return nil
}

type memTxRepos struct{ store *memStore }

func (r *memTxRepos) Products() repo.ProductRepository    { return &memProductRepo{r.store} }
func (r *memTxRepos) Inventory() repo.InventoryRepository { return &memInventoryRepo{r.store} }
func (r *memTxRepos) Sales() repo.SaleRepository          { return &memSaleRepo{r.store} }
func (r *memTxRepos) SaleItems() repo.SaleItemRepository  { return &memSaleItemRepo{r.store} }

type memProductRepo struct{ store *memStore }

func (r *memProductRepo) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.store.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	return nil, 0, errors.New("not implemented")
}
func (r *memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	return r.FindByIDForUpdate(ctx, id)
}
func (r *memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	return model.Product{}, errors.New("not implemented")
}
func (r *memProductRepo) Update(ctx context.Context, p model.Product) error {
	return errors.New("not implemented")
}
func (r *memProductRepo) SoftDelete(ctx context.Context, id int64) error {
	return errors.New("not implemented")
}

type memInventoryRepo struct{ store *memStore }

func (r *memInventoryRepo) SetStock(ctx context.Context, productID int64, newStock int64) error {
	p, ok := r.store.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	r.store.products[productID] = p
	return nil
}
func (r *memInventoryRepo) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return errors.New("not implemented")
}

type memSaleRepo struct{ store *memStore }

func (r *memSaleRepo) Create(ctx context.Context, sale model.Sale) (int64, error) {
	sale.ID = r.store.nextSale
	r.store.nextSale++
	r.store.sales = append(r.store.sales, sale)
	return sale.ID, nil
}
func (r *memSaleRepo) FindByID(ctx context.Context, saleID int64) (model.Sale, error) {
	return model.Sale{}, errors.New("not implemented")
}
func (r *memSaleRepo) ListRecent(ctx context.Context, q repo.SaleListQuery) ([]model.Sale, int64, error) {
	return nil, 0, errors.New("not implemented")
}

type memSaleItemRepo struct{ store *memStore }

func (r *memSaleItemRepo) CreateBulk(ctx context.Context, saleID int64, items []model.SaleItem) error {
	r.store.items[saleID] = append(r.store.items[saleID], items...)
	return nil
}
func (r *memSaleItemRepo) ListBySaleID(ctx context.Context, saleID int64) ([]model.SaleItem, error) {
	return r.store.items[saleID], nil
}
func (r *memSaleItemRepo) ListBySaleIDs(ctx context.Context, saleIDs []int64) (map[int64][]model.SaleItem, error) {
	return nil, errors.New("not implemented")
}

type seqRefGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqRefGen) NewReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ref-%04d", g.n)
}

// 在庫10の商品に対してqty=6のカートを2つ同時に投げる。
// 直列化されてちょうど1つだけ成功し、売り越さない。
func TestCheckoutUsecase_ConcurrentCartsNeverOversell(t *testing.T) {
	store := newMemStore(model.Product{ID: 1, Name: "Coffee", Price: dec("5.00"), Stock: 10})
	uc := usecase.NewCheckoutUsecase(store, &seqRefGen{}, &realTestClock{})

	in := usecase.CheckoutInput{
		Lines:    []usecase.CartLine{{ProductID: 1, Quantity: 6}},
		Customer: validCustomer(),
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	outs := make([]usecase.CheckoutOutput, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i], results[i] = uc.Checkout(context.Background(), in)
		}(i)
	}
	wg.Wait()

	var okCount, stockErrCount int
	for i, err := range results {
		if err == nil {
			okCount++
			assert.True(t, outs[i].Total.Equal(dec("30.00")), "winning checkout total, got %s", outs[i].Total)
			continue
		}
		var noStock *usecase.InsufficientStockError
		if assert.ErrorAs(t, err, &noStock) {
			stockErrCount++
			assert.Equal(t, int64(4), noStock.Available)
			assert.Equal(t, int64(6), noStock.Requested)
		}
	}

	assert.Equal(t, 1, okCount, "exactly one checkout must win")
	assert.Equal(t, 1, stockErrCount)
	assert.Equal(t, int64(4), store.products[1].Stock, "stock must reflect exactly one sale")
	assert.Len(t, store.sales, 1)
}

// not-foundで先行行の減算もまとめて巻き戻ることを、実際に状態を持つstoreで確認する。
func TestCheckoutUsecase_RollbackRestoresStock(t *testing.T) {
	store := newMemStore(model.Product{ID: 1, Name: "Coffee", Price: dec("5.00"), Stock: 10})
	uc := usecase.NewCheckoutUsecase(store, &seqRefGen{}, &realTestClock{})

	_, err := uc.Checkout(context.Background(), usecase.CheckoutInput{
		Lines: []usecase.CartLine{
			{ProductID: 1, Quantity: 3},
			{ProductID: 404, Quantity: 1},
		},
		Customer: validCustomer(),
	})

	var notFound *usecase.ProductNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(10), store.products[1].Stock, "stock must be unchanged after rollback")
	assert.Empty(t, store.sales)
}

// sale.total が常に明細のqty*priceの合計に一致する。
func TestCheckoutUsecase_TotalMatchesItems(t *testing.T) {
	store := newMemStore(
		model.Product{ID: 1, Name: "Coffee", Price: dec("5.00"), Stock: 100},
		model.Product{ID: 2, Name: "Mug", Price: dec("12.35"), Stock: 100},
		model.Product{ID: 3, Name: "Beans", Price: dec("0.99"), Stock: 100},
	)
	uc := usecase.NewCheckoutUsecase(store, &seqRefGen{}, &realTestClock{})

	out, err := uc.Checkout(context.Background(), usecase.CheckoutInput{
		Lines: []usecase.CartLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3},
			{ProductID: 3, Quantity: 7},
		},
		Customer: validCustomer(),
	})
	assert.NoError(t, err)

	sum := decimal.Zero
	for _, it := range out.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}
	assert.True(t, out.Total.Equal(sum), "total %s != sum of items %s", out.Total, sum)
	assert.True(t, out.Total.Equal(dec("53.98")), "got %s", out.Total)
}

type realTestClock struct{}

func (c *realTestClock) Now() time.Time { return time.Now() }
