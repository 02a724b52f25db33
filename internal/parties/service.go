package parties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/pkg/db/models"
	"github.com/mkaddour/gestock-backend/pkg/enums"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
)

// Service exposes counterparty operations.
type Service interface {
	Create(ctx context.Context, input CreatePartyInput) (*PartyDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePartyInput) (*PartyDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*PartyDTO, error)
	List(ctx context.Context, role string) ([]PartyDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds a party service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("party repository required")
	}
	return &service{repo: repo}, nil
}

// CreatePartyInput captures a new counterparty.
type CreatePartyInput struct {
	FirstName string
	LastName  string
	Role      enums.PartyRole
}

// UpdatePartyInput captures the allowed party fields for mutation.
type UpdatePartyInput struct {
	FirstName *string
	LastName  *string
	Role      *enums.PartyRole
}

// PartyDTO is the counterparty read model with per-direction ledger totals.
type PartyDTO struct {
	ID            uuid.UUID       `json:"id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Role          enums.PartyRole `json:"role"`
	SaleCount     int64           `json:"sale_count"`
	SaleTotal     decimal.Decimal `json:"sale_total"`
	PurchaseCount int64           `json:"purchase_count"`
	PurchaseTotal decimal.Decimal `json:"purchase_total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s *service) Create(ctx context.Context, input CreatePartyInput) (*PartyDTO, error) {
	if err := validatePartyFields(input.FirstName, input.LastName, input.Role); err != nil {
		return nil, err
	}

	party := &models.Party{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      input.Role,
	}
	if err := s.repo.Create(ctx, party); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create party")
	}
	return toPartyDTO(party, DirectionTotals{}), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePartyInput) (*PartyDTO, error) {
	party, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		party.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		party.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Role != nil {
		party.Role = *input.Role
	}
	if err := validatePartyFields(party.FirstName, party.LastName, party.Role); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, party); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update party")
	}
	return s.withTotals(ctx, party)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete party")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*PartyDTO, error) {
	party, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withTotals(ctx, party)
}

func (s *service) List(ctx context.Context, role string) ([]PartyDTO, error) {
	if role != "" && !enums.PartyRole(role).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role filter").
			WithDetails(map[string]any{"role": "must be client or supplier"})
	}

	rows, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parties")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	totals, err := s.repo.Totals(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate party totals")
	}

	dtos := make([]PartyDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *toPartyDTO(&rows[i], totals[rows[i].ID]))
	}
	return dtos, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	party, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}
	return party, nil
}

func (s *service) withTotals(ctx context.Context, party *models.Party) (*PartyDTO, error) {
	totals, err := s.repo.Totals(ctx, []uuid.UUID{party.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate party totals")
	}
	return toPartyDTO(party, totals[party.ID]), nil
}

func validatePartyFields(firstName, lastName string, role enums.PartyRole) error {
	details := map[string]any{}
	if strings.TrimSpace(firstName) == "" {
		details["first_name"] = "required"
	}
	if strings.TrimSpace(lastName) == "" {
		details["last_name"] = "required"
	}
	if !role.IsValid() {
		details["role"] = "must be client or supplier"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid party").WithDetails(details)
	}
	return nil
}

func toPartyDTO(party *models.Party, totals DirectionTotals) *PartyDTO {
	return &PartyDTO{
		ID:            party.ID,
		FirstName:     party.FirstName,
		LastName:      party.LastName,
		Role:          party.Role,
		SaleCount:     totals.SaleCount,
		SaleTotal:     totals.SaleTotal,
		PurchaseCount: totals.PurchaseCount,
		PurchaseTotal: totals.PurchaseTotal,
		CreatedAt:     party.CreatedAt,
		UpdatedAt:     party.UpdatedAt,
	}
}
