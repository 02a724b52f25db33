package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/internal/repo"
	"github.com/mkaddour/gestock-backend/internal/timewindow"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
	"github.com/mkaddour/gestock-backend/pkg/enums"
	"github.com/mkaddour/gestock-backend/pkg/pagination"
)

// ListQuery filters the entry listing. Nil filters are skipped; the window's
// nil bounds mean unbounded on that side.
type ListQuery struct {
	Window      timewindow.Window
	Direction   *enums.Direction
	StockItemID *uuid.UUID
	PartyID     *uuid.UUID
	Pagination  pagination.Params
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries    []models.LedgerEntry
	NextCursor string
}

// Repository manages persistence for ledger entries. Entries are immutable:
// there is no update or delete surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	List(ctx context.Context, query ListQuery) (*ListResult, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.DB(ctx).
		Model(&models.LedgerEntry{}).
		Preload("StockItem").
		Preload("Party")

	if query.Window.Start != nil {
		qb = qb.Where("ledger_entries.created_at >= ?", *query.Window.Start)
	}
	if query.Window.End != nil {
		qb = qb.Where("ledger_entries.created_at < ?", *query.Window.End)
	}
	if query.Direction != nil {
		qb = qb.Where("ledger_entries.direction = ?", *query.Direction)
	}
	if query.StockItemID != nil {
		qb = qb.Where("ledger_entries.stock_item_id = ?", *query.StockItemID)
	}
	if query.PartyID != nil {
		qb = qb.Where("ledger_entries.party_id = ?", *query.PartyID)
	}
	if cursor != nil {
		qb = qb.Where("(ledger_entries.created_at < ?) OR (ledger_entries.created_at = ? AND ledger_entries.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LedgerEntry
	if err := qb.
		Order("ledger_entries.created_at DESC").
		Order("ledger_entries.id DESC").
		Limit(pageSize + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ListResult{Entries: rows, NextCursor: nextCursor}, nil
}
