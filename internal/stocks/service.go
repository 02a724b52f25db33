package stocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/pkg/db"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
)

// Service exposes catalog operations for stock items.
type Service interface {
	Create(ctx context.Context, input CreateStockInput) (*StockDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateStockInput) (*StockDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*StockDTO, error)
	List(ctx context.Context) ([]StockDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds a stock service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo}, nil
}

// CreateStockInput captures a new catalog row.
type CreateStockInput struct {
	Product       string
	Quantity      int
	SalePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
}

// UpdateStockInput captures the allowed catalog fields for mutation. Quantity
// edits here bypass the ledger; the entry history is not rewritten.
type UpdateStockInput struct {
	Product       *string
	Quantity      *int
	SalePrice     *decimal.Decimal
	PurchasePrice *decimal.Decimal
}

// StockDTO is the catalog read model. RetailValue is quantity times sale
// price at read time.
type StockDTO struct {
	ID            uuid.UUID       `json:"id"`
	Product       string          `json:"product"`
	Quantity      int             `json:"quantity"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	RetailValue   decimal.Decimal `json:"retail_value"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s *service) Create(ctx context.Context, input CreateStockInput) (*StockDTO, error) {
	if err := validateCatalogFields(input.Product, input.Quantity, input.SalePrice, input.PurchasePrice); err != nil {
		return nil, err
	}

	item := &models.StockItem{
		Product:       strings.TrimSpace(input.Product),
		Quantity:      input.Quantity,
		SalePrice:     input.SalePrice,
		PurchasePrice: input.PurchasePrice,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %q already exists", item.Product))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock item")
	}
	return toStockDTO(item), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateStockInput) (*StockDTO, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Product != nil {
		item.Product = strings.TrimSpace(*input.Product)
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if input.SalePrice != nil {
		item.SalePrice = *input.SalePrice
	}
	if input.PurchasePrice != nil {
		item.PurchasePrice = *input.PurchasePrice
	}
	if err := validateCatalogFields(item.Product, item.Quantity, item.SalePrice, item.PurchasePrice); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %q already exists", item.Product))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock item")
	}
	return toStockDTO(item), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock item")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StockDTO, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStockDTO(item), nil
}

func (s *service) List(ctx context.Context) ([]StockDTO, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock items")
	}
	dtos := make([]StockDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *toStockDTO(&items[i]))
	}
	return dtos, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return item, nil
}

func validateCatalogFields(product string, quantity int, salePrice, purchasePrice decimal.Decimal) error {
	details := map[string]any{}
	if strings.TrimSpace(product) == "" {
		details["product"] = "required"
	}
	if quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if salePrice.IsNegative() {
		details["sale_price"] = "must not be negative"
	}
	if purchasePrice.IsNegative() {
		details["purchase_price"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid stock item").WithDetails(details)
	}
	return nil
}

func toStockDTO(item *models.StockItem) *StockDTO {
	return &StockDTO{
		ID:            item.ID,
		Product:       item.Product,
		Quantity:      item.Quantity,
		SalePrice:     item.SalePrice,
		PurchasePrice: item.PurchasePrice,
		RetailValue:   item.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}
