package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 売上明細。priceは減算時点の商品価格スナップショット。
type SaleItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID              int64           `gorm:"not null;index" json:"sale_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Price               decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
