package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 売上ヘッダ。作成後は不変。
type Sale struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`

	//購入時点の顧客スナップショット
	CustomerName    string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerAddress string `gorm:"type:varchar(255);not null" json:"customer_address"`
	CustomerPhone   string `gorm:"type:varchar(50);not null" json:"customer_phone"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime" json:"created_at"`
}
