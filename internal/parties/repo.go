package parties

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/internal/repo"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
)

// Repository manages persistence for counterparties.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, party *models.Party) error
	Save(ctx context.Context, party *models.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
	List(ctx context.Context, role string) ([]models.Party, error)
	Totals(ctx context.Context, partyIDs []uuid.UUID) (map[uuid.UUID]DirectionTotals, error)
}

// DirectionTotals aggregates a party's ledger activity per direction.
type DirectionTotals struct {
	SaleCount     int64
	SaleTotal     decimal.Decimal
	PurchaseCount int64
	PurchaseTotal decimal.Decimal
}

type repository struct {
	repo.Base
}

// NewRepository returns a party repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, party *models.Party) error {
	return r.DB(ctx).Create(party).Error
}

func (r *repository) Save(ctx context.Context, party *models.Party) error {
	return r.DB(ctx).Save(party).Error
}

// Delete removes the row. Ledger entries referencing the party keep their
// history with a nulled party_id (ON DELETE SET NULL).
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.DB(ctx)
	if err := tx.Model(&models.LedgerEntry{}).
		Where("party_id = ?", id).
		Update("party_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Party{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	var party models.Party
	if err := r.DB(ctx).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repository) List(ctx context.Context, role string) ([]models.Party, error) {
	qb := r.DB(ctx).Order("last_name ASC, first_name ASC")
	if role != "" {
		qb = qb.Where("role = ?", role)
	}
	var rows []models.Party
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type totalsRow struct {
	PartyID   uuid.UUID
	Direction string
	Count     int64
	Total     decimal.Decimal
}

// Totals sums entry counts and prices per party and direction in one pass.
func (r *repository) Totals(ctx context.Context, partyIDs []uuid.UUID) (map[uuid.UUID]DirectionTotals, error) {
	if len(partyIDs) == 0 {
		return map[uuid.UUID]DirectionTotals{}, nil
	}

	var rows []totalsRow
	err := r.DB(ctx).
		Model(&models.LedgerEntry{}).
		Select("party_id, direction, COUNT(*) AS count, COALESCE(SUM(price), 0) AS total").
		Where("party_id IN ?", partyIDs).
		Group("party_id, direction").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]DirectionTotals, len(partyIDs))
	for _, row := range rows {
		entry := totals[row.PartyID]
		switch row.Direction {
		case "sale":
			entry.SaleCount = row.Count
			entry.SaleTotal = row.Total
		case "purchase":
			entry.PurchaseCount = row.Count
			entry.PurchaseTotal = row.Total
		}
		totals[row.PartyID] = entry
	}
	return totals, nil
}
