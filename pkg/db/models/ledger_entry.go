package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/pkg/enums"
)

// LedgerEntry records one immutable stock movement. Price is the denormalized
// total (unit price at apply time times quantity) and NewStockQt snapshots the
// item's on-hand quantity right after the mutation.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StockItemID uuid.UUID       `gorm:"column:stock_item_id;type:uuid;not null;index"`
	StockItem   *StockItem      `gorm:"foreignKey:StockItemID;constraint:OnDelete:CASCADE"`
	PartyID     *uuid.UUID      `gorm:"column:party_id;type:uuid;index"`
	Party       *Party          `gorm:"foreignKey:PartyID;constraint:OnDelete:SET NULL"`
	Direction   enums.Direction `gorm:"column:direction;type:ledger_direction;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	NewStockQt  int             `gorm:"column:new_stock_qt;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_ledger_entries_created_at_id,priority:1"`
}

// BeforeCreate assigns the ID when the database does not.
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
