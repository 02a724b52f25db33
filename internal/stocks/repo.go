package stocks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkaddour/gestock-backend/internal/repo"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
)

// Repository manages persistence for catalog stock items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.StockItem) error
	Save(ctx context.Context, item *models.StockItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
	List(ctx context.Context) ([]models.StockItem, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, item *models.StockItem) error {
	return r.DB(ctx).Create(item).Error
}

func (r *repository) Save(ctx context.Context, item *models.StockItem) error {
	return r.DB(ctx).Save(item).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.StockItem{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDForUpdate loads the row under a FOR UPDATE lock so concurrent
// applies against the same item serialize. Must run inside a transaction.
// SQLite has no row locks and serializes writers on its own, so the clause
// only applies on Postgres.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	qb := r.DB(ctx)
	if qb.Dialector.Name() == "postgres" {
		qb = qb.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.StockItem
	if err := qb.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context) ([]models.StockItem, error) {
	var rows []models.StockItem
	if err := r.DB(ctx).
		Order("product ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
