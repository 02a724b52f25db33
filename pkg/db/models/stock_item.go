package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem is one catalog row: a product with its on-hand quantity and the
// unit prices transactions are valued at. Quantity is normally mutated through
// the ledger apply path; direct catalog edits bypass it and may drift from the
// entry history.
type StockItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Product       string          `gorm:"column:product;uniqueIndex;not null"`
	Quantity      int             `gorm:"column:quantity;not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the ID when the database does not.
func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
