package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/internal/stocks"
	"github.com/mkaddour/gestock-backend/internal/timewindow"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
	"github.com/mkaddour/gestock-backend/pkg/enums"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
	"github.com/mkaddour/gestock-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testPartyRepo struct {
	db *gorm.DB
}

func (r testPartyRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS stock_items (
  id TEXT PRIMARY KEY,
  product TEXT NOT NULL UNIQUE,
  quantity INTEGER NOT NULL DEFAULT 0,
  sale_price NUMERIC NOT NULL,
  purchase_price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS parties (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  stock_item_id TEXT NOT NULL,
  party_id TEXT,
  direction TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  new_stock_qt INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newLedgerService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupLedgerTestDB(t)
	svc, err := NewService(testTxRunner{db: db}, NewRepository(db), stocks.NewRepository(db), testPartyRepo{db: db}, nil)
	require.NoError(t, err)
	return svc, db
}

func mustCreateStock(t *testing.T, db *gorm.DB, product string, qty int, salePrice, purchasePrice string) *models.StockItem {
	t.Helper()
	item := &models.StockItem{
		Product:       product,
		Quantity:      qty,
		SalePrice:     decimal.RequireFromString(salePrice),
		PurchasePrice: decimal.RequireFromString(purchasePrice),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestApplySale(t *testing.T) {
	svc, db := newLedgerService(t)
	item := mustCreateStock(t, db, "Widget", 10, "5.00", "3.00")

	entry, err := svc.Apply(context.Background(), ApplyInput{
		StockItemID: item.ID,
		Direction:   enums.DirectionSale,
		Quantity:    3,
	})
	require.NoError(t, err)
	require.True(t, entry.Price.Equal(decimal.RequireFromString("15.00")), "price %s", entry.Price)
	require.Equal(t, 7, entry.NewStockQt)

	var reloaded models.StockItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 7, reloaded.Quantity)
}

func TestApplyPurchase(t *testing.T) {
	svc, db := newLedgerService(t)
	item := mustCreateStock(t, db, "Widget", 7, "5.00", "3.00")

	entry, err := svc.Apply(context.Background(), ApplyInput{
		StockItemID: item.ID,
		Direction:   enums.DirectionPurchase,
		Quantity:    5,
	})
	require.NoError(t, err)
	require.True(t, entry.Price.Equal(decimal.RequireFromString("15.00")), "price %s", entry.Price)
	require.Equal(t, 12, entry.NewStockQt)

	var reloaded models.StockItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 12, reloaded.Quantity)
}

func TestApplyInsufficientStockLeavesStateUntouched(t *testing.T) {
	svc, db := newLedgerService(t)
	item := mustCreateStock(t, db, "Widget", 10, "5.00", "3.00")

	_, err := svc.Apply(context.Background(), ApplyInput{
		StockItemID: item.ID,
		Direction:   enums.DirectionSale,
		Quantity:    11,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Contains(t, details, "quantity")

	var reloaded models.StockItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 10, reloaded.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestApplyUnknownStockItem(t *testing.T) {
	svc, _ := newLedgerService(t)

	_, err := svc.Apply(context.Background(), ApplyInput{
		StockItemID: uuid.New(),
		Direction:   enums.DirectionSale,
		Quantity:    1,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestApplyValidation(t *testing.T) {
	svc, db := newLedgerService(t)
	item := mustCreateStock(t, db, "Widget", 10, "5.00", "3.00")

	tests := []struct {
		name  string
		input ApplyInput
	}{
		{name: "missing stock id", input: ApplyInput{Direction: enums.DirectionSale, Quantity: 1}},
		{name: "zero quantity", input: ApplyInput{StockItemID: item.ID, Direction: enums.DirectionSale}},
		{name: "negative quantity", input: ApplyInput{StockItemID: item.ID, Direction: enums.DirectionSale, Quantity: -2}},
		{name: "bad direction", input: ApplyInput{StockItemID: item.ID, Direction: enums.Direction("refund"), Quantity: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Apply(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestApplyUnknownParty(t *testing.T) {
	svc, db := newLedgerService(t)
	item := mustCreateStock(t, db, "Widget", 10, "5.00", "3.00")

	missing := uuid.New()
	_, err := svc.Apply(context.Background(), ApplyInput{
		StockItemID: item.ID,
		Direction:   enums.DirectionSale,
		Quantity:    1,
		PartyID:     &missing,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

// Posting more unit sales than there is stock must succeed exactly
// stock-many times regardless of order.
func TestApplyContention(t *testing.T) {
	svc, db := newLedgerService(t)
	item := mustCreateStock(t, db, "Widget", 5, "5.00", "3.00")

	var succeeded, rejected int
	for i := 0; i < 8; i++ {
		_, err := svc.Apply(context.Background(), ApplyInput{
			StockItemID: item.ID,
			Direction:   enums.DirectionSale,
			Quantity:    1,
		})
		if err == nil {
			succeeded++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
		rejected++
	}

	require.Equal(t, 5, succeeded)
	require.Equal(t, 3, rejected)

	var reloaded models.StockItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 0, reloaded.Quantity)
}

// Concurrent unit sales against one item must serialize on the stock row:
// no oversell, and every rejection is an insufficient-stock conflict.
func TestApplyContentionConcurrent(t *testing.T) {
	svc, db := newLedgerService(t)

	// A single connection keeps shared-cache sqlite from returning busy
	// errors while the callers still race through the service.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	item := mustCreateStock(t, db, "Widget", 5, "5.00", "3.00")

	const workers = 8
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = svc.Apply(context.Background(), ApplyInput{
				StockItemID: item.ID,
				Direction:   enums.DirectionSale,
				Quantity:    1,
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, applyErr := range results {
		if applyErr == nil {
			succeeded++
			continue
		}
		typed := pkgerrors.As(applyErr)
		require.NotNil(t, typed)
		require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
		rejected++
	}
	require.Equal(t, 5, succeeded)
	require.Equal(t, 3, rejected)

	var reloaded models.StockItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Equal(t, 0, reloaded.Quantity)

	var entries int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Count(&entries).Error)
	require.EqualValues(t, 5, entries)
}

func TestListFiltersAndPagination(t *testing.T) {
	svc, db := newLedgerService(t)
	widget := mustCreateStock(t, db, "Widget", 100, "5.00", "3.00")
	anvil := mustCreateStock(t, db, "Anvil", 100, "9.00", "6.00")

	base := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	mk := func(item *models.StockItem, direction enums.Direction, at time.Time) {
		entry := &models.LedgerEntry{
			StockItemID: item.ID,
			Direction:   direction,
			Quantity:    1,
			Price:       item.SalePrice,
			NewStockQt:  item.Quantity,
			CreatedAt:   at,
		}
		require.NoError(t, db.Create(entry).Error)
	}
	mk(widget, enums.DirectionSale, base)
	mk(widget, enums.DirectionPurchase, base.Add(time.Minute))
	mk(anvil, enums.DirectionSale, base.Add(2*time.Minute))
	mk(widget, enums.DirectionSale, base.Add(25*time.Hour))

	ctx := context.Background()

	sale := enums.DirectionSale
	page, err := svc.List(ctx, ListQuery{Direction: &sale})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	for _, entry := range page.Entries {
		require.Equal(t, enums.DirectionSale, entry.Direction)
	}

	page, err = svc.List(ctx, ListQuery{StockItemID: &widget.ID})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	require.Equal(t, "Widget", page.Entries[0].Product)

	page, err = svc.List(ctx, ListQuery{Window: timewindow.Today(base)})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)

	// Newest first, one per page, chained by cursor.
	page, err = svc.List(ctx, ListQuery{Pagination: pagination.Params{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	require.NotEmpty(t, page.NextCursor)
	first := page.Entries[0].CreatedAt

	page, err = svc.List(ctx, ListQuery{Pagination: pagination.Params{Limit: 1, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	require.True(t, page.Entries[0].CreatedAt.Before(first))
}
