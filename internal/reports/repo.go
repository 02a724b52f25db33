package reports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/internal/repo"
	"github.com/mkaddour/gestock-backend/internal/timewindow"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
	"github.com/mkaddour/gestock-backend/pkg/enums"
)

// Filter scopes an aggregation query. Nil members are skipped; the window's
// nil bounds mean unbounded on that side.
type Filter struct {
	Direction   *enums.Direction
	Window      timewindow.Window
	StockItemID *uuid.UUID
	PartyID     *uuid.UUID
}

// ItemQty is one top-N row: an item and its summed transacted quantity.
type ItemQty struct {
	StockItemID uuid.UUID       `json:"stock_item_id"`
	Product     string          `json:"product"`
	Quantity    int64           `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// PartyRevenue is one top-N row: a party and its summed sale revenue.
type PartyRevenue struct {
	PartyID   uuid.UUID       `json:"party_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Repository runs read-only aggregation queries over the ledger. Every query
// here is a pure read; nothing in this package mutates state.
type Repository interface {
	Count(ctx context.Context, filter Filter) (int64, error)
	SumPrice(ctx context.Context, filter Filter) (decimal.Decimal, error)
	SaleCostAtCurrentPrice(ctx context.Context, window timewindow.Window) (decimal.Decimal, error)
	TopItems(ctx context.Context, direction enums.Direction, window timewindow.Window, partyID *uuid.UUID, n int) ([]ItemQty, error)
	TopParties(ctx context.Context, window timewindow.Window, n int) ([]PartyRevenue, error)
	StockValuation(ctx context.Context) (decimal.Decimal, error)
	PurchaseValuation(ctx context.Context) (decimal.Decimal, error)
	TopStockByQuantity(ctx context.Context, n int) ([]models.StockItem, error)
	EntriesIn(ctx context.Context, filter Filter) ([]models.LedgerEntry, error)
	RecentEntries(ctx context.Context, filter Filter, limit int) ([]models.LedgerEntry, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) base(ctx context.Context, filter Filter) *gorm.DB {
	qb := r.DB(ctx).Model(&models.LedgerEntry{})
	if filter.Direction != nil {
		qb = qb.Where("ledger_entries.direction = ?", *filter.Direction)
	}
	if filter.Window.Start != nil {
		qb = qb.Where("ledger_entries.created_at >= ?", *filter.Window.Start)
	}
	if filter.Window.End != nil {
		qb = qb.Where("ledger_entries.created_at < ?", *filter.Window.End)
	}
	if filter.StockItemID != nil {
		qb = qb.Where("ledger_entries.stock_item_id = ?", *filter.StockItemID)
	}
	if filter.PartyID != nil {
		qb = qb.Where("ledger_entries.party_id = ?", *filter.PartyID)
	}
	return qb
}

func (r *repository) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64
	if err := r.base(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type sumRow struct {
	Total decimal.Decimal
}

func (r *repository) SumPrice(ctx context.Context, filter Filter) (decimal.Decimal, error) {
	var row sumRow
	if err := r.base(ctx, filter).
		Select("COALESCE(SUM(ledger_entries.price), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// SaleCostAtCurrentPrice values sold quantities at the item's current catalog
// purchase price. Margin is an approximation against today's catalog, not the
// price paid historically.
func (r *repository) SaleCostAtCurrentPrice(ctx context.Context, window timewindow.Window) (decimal.Decimal, error) {
	sale := enums.DirectionSale
	var row sumRow
	if err := r.base(ctx, Filter{Direction: &sale, Window: window}).
		Joins("JOIN stock_items ON stock_items.id = ledger_entries.stock_item_id").
		Select("COALESCE(SUM(ledger_entries.quantity * stock_items.purchase_price), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) TopItems(ctx context.Context, direction enums.Direction, window timewindow.Window, partyID *uuid.UUID, n int) ([]ItemQty, error) {
	filter := Filter{Direction: &direction, Window: window, PartyID: partyID}
	var rows []ItemQty
	if err := r.base(ctx, filter).
		Joins("JOIN stock_items ON stock_items.id = ledger_entries.stock_item_id").
		Select("ledger_entries.stock_item_id, stock_items.product, SUM(ledger_entries.quantity) AS quantity, COALESCE(SUM(ledger_entries.price), 0) AS total").
		Group("ledger_entries.stock_item_id, stock_items.product").
		Order("quantity DESC").
		Order("stock_items.product ASC").
		Limit(n).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopParties(ctx context.Context, window timewindow.Window, n int) ([]PartyRevenue, error) {
	sale := enums.DirectionSale
	filter := Filter{Direction: &sale, Window: window}
	var rows []PartyRevenue
	if err := r.base(ctx, filter).
		Joins("JOIN parties ON parties.id = ledger_entries.party_id").
		Select("ledger_entries.party_id, parties.first_name, parties.last_name, COALESCE(SUM(ledger_entries.price), 0) AS revenue").
		Group("ledger_entries.party_id, parties.first_name, parties.last_name").
		Order("revenue DESC").
		Order("parties.last_name ASC, parties.first_name ASC").
		Limit(n).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// StockValuation sums quantity times sale price over the whole catalog.
// Point-in-time by definition, so no window applies.
func (r *repository) StockValuation(ctx context.Context) (decimal.Decimal, error) {
	return r.valuation(ctx, "sale_price")
}

// PurchaseValuation sums quantity times purchase price over the catalog.
func (r *repository) PurchaseValuation(ctx context.Context) (decimal.Decimal, error) {
	return r.valuation(ctx, "purchase_price")
}

func (r *repository) valuation(ctx context.Context, priceColumn string) (decimal.Decimal, error) {
	var row sumRow
	if err := r.DB(ctx).
		Model(&models.StockItem{}).
		Select("COALESCE(SUM(quantity * " + priceColumn + "), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) TopStockByQuantity(ctx context.Context, n int) ([]models.StockItem, error) {
	var rows []models.StockItem
	if err := r.DB(ctx).
		Order("quantity DESC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EntriesIn loads all matching entries, oldest first, for callers that bucket
// in memory (monthly and daily activity series).
func (r *repository) EntriesIn(ctx context.Context, filter Filter) ([]models.LedgerEntry, error) {
	var rows []models.LedgerEntry
	if err := r.base(ctx, filter).
		Order("ledger_entries.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RecentEntries(ctx context.Context, filter Filter, limit int) ([]models.LedgerEntry, error) {
	var rows []models.LedgerEntry
	if err := r.base(ctx, filter).
		Preload("StockItem").
		Preload("Party").
		Order("ledger_entries.created_at DESC").
		Order("ledger_entries.id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
