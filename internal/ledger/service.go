package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/internal/stocks"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
	"github.com/mkaddour/gestock-backend/pkg/enums"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
	"github.com/mkaddour/gestock-backend/pkg/metrics"
)

const (
	rejectInsufficientStock = "insufficient_stock"
	rejectNotFound          = "not_found"
	rejectValidation        = "validation"
	rejectDependency        = "dependency"
)

// Service applies transactions against the stock ledger and lists entries.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*EntryDTO, error)
	List(ctx context.Context, query ListQuery) (*PageDTO, error)
}

type partyFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	client  TxRunner
	entries Repository
	stocks  stocks.Repository
	parties partyFinder
	metrics *metrics.LedgerMetrics
}

// NewService wires a ledger service. The metrics collector may be nil.
func NewService(client TxRunner, entries Repository, stockRepo stocks.Repository, parties partyFinder, m *metrics.LedgerMetrics) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if entries == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if parties == nil {
		return nil, fmt.Errorf("party repository required")
	}
	return &service{
		client:  client,
		entries: entries,
		stocks:  stockRepo,
		parties: parties,
		metrics: m,
	}, nil
}

// ApplyInput captures one transaction to post against a stock item.
type ApplyInput struct {
	StockItemID uuid.UUID
	Direction   enums.Direction
	Quantity    int
	PartyID     *uuid.UUID
}

// EntryDTO is the ledger entry read model.
type EntryDTO struct {
	ID          uuid.UUID       `json:"id"`
	StockItemID uuid.UUID       `json:"stock_item_id"`
	Product     string          `json:"product,omitempty"`
	PartyID     *uuid.UUID      `json:"party_id,omitempty"`
	PartyName   string          `json:"party_name,omitempty"`
	Direction   enums.Direction `json:"direction"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	NewStockQt  int             `json:"new_stock_qt"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PageDTO is one page of entries plus the cursor for the next one.
type PageDTO struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Apply posts one transaction atomically: the stock row is locked for the
// duration of the transaction, so concurrent applies against the same item
// serialize while other items proceed in parallel.
func (s *service) Apply(ctx context.Context, input ApplyInput) (*EntryDTO, error) {
	started := time.Now()

	if err := s.validateApply(ctx, input); err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		stockRepo := s.stocks.WithTx(tx)

		item, err := stockRepo.FindByIDForUpdate(ctx, input.StockItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock item")
		}

		var unitPrice decimal.Decimal
		switch input.Direction {
		case enums.DirectionSale:
			if item.Quantity < input.Quantity {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
					WithDetails(map[string]any{"quantity": "insufficient stock"})
			}
			unitPrice = item.SalePrice
			item.Quantity -= input.Quantity
		case enums.DirectionPurchase:
			unitPrice = item.PurchasePrice
			item.Quantity += input.Quantity
		}

		if err := stockRepo.Save(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock quantity")
		}

		entry = &models.LedgerEntry{
			StockItemID: item.ID,
			PartyID:     input.PartyID,
			Direction:   input.Direction,
			Quantity:    input.Quantity,
			Price:       unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
			NewStockQt:  item.Quantity,
		}
		if err := s.entries.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert ledger entry")
		}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	s.metrics.IncApplied(input.Direction.String())
	s.metrics.ObserveApply(input.Direction.String(), time.Since(started))
	return toEntryDTO(entry), nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*PageDTO, error) {
	result, err := s.entries.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	dtos := make([]EntryDTO, 0, len(result.Entries))
	for i := range result.Entries {
		dtos = append(dtos, *toEntryDTO(&result.Entries[i]))
	}
	return &PageDTO{Entries: dtos, NextCursor: result.NextCursor}, nil
}

func (s *service) validateApply(ctx context.Context, input ApplyInput) error {
	details := map[string]any{}
	if input.StockItemID == uuid.Nil {
		details["stock_item_id"] = "required"
	}
	if !input.Direction.IsValid() {
		details["direction"] = "must be purchase or sale"
	}
	if input.Quantity <= 0 {
		details["quantity"] = "must be positive"
	}
	if len(details) > 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction").WithDetails(details)
		s.recordRejection(err)
		return err
	}

	if input.PartyID != nil {
		if _, err := s.parties.FindByID(ctx, *input.PartyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
			} else {
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
			}
			s.recordRejection(err)
			return err
		}
	}
	return nil
}

func (s *service) recordRejection(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		s.metrics.IncRejected(rejectDependency)
		return
	}
	switch typed.Code() {
	case pkgerrors.CodeStateConflict:
		s.metrics.IncRejected(rejectInsufficientStock)
	case pkgerrors.CodeNotFound:
		s.metrics.IncRejected(rejectNotFound)
	case pkgerrors.CodeValidation:
		s.metrics.IncRejected(rejectValidation)
	default:
		s.metrics.IncRejected(rejectDependency)
	}
}

func toEntryDTO(entry *models.LedgerEntry) *EntryDTO {
	dto := &EntryDTO{
		ID:          entry.ID,
		StockItemID: entry.StockItemID,
		PartyID:     entry.PartyID,
		Direction:   entry.Direction,
		Quantity:    entry.Quantity,
		Price:       entry.Price,
		NewStockQt:  entry.NewStockQt,
		CreatedAt:   entry.CreatedAt,
	}
	if entry.StockItem != nil {
		dto.Product = entry.StockItem.Product
	}
	if entry.Party != nil {
		dto.PartyName = entry.Party.FirstName + " " + entry.Party.LastName
	}
	return dto
}
