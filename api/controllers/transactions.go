package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mkaddour/gestock-backend/api/responses"
	"github.com/mkaddour/gestock-backend/api/validators"
	ledgersvc "github.com/mkaddour/gestock-backend/internal/ledger"
	"github.com/mkaddour/gestock-backend/pkg/enums"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
	"github.com/mkaddour/gestock-backend/pkg/logger"
	"github.com/mkaddour/gestock-backend/pkg/pagination"
)

// ApplyTransaction posts one purchase or sale against a stock item.
func ApplyTransaction(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		var payload applyTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stockID, err := uuid.Parse(payload.StockItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock item id"))
			return
		}

		direction, err := enums.ParseDirection(payload.Direction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction"))
			return
		}

		var partyID *uuid.UUID
		if payload.PartyID != nil {
			partyID, err = parseOptionalUUID(*payload.PartyID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		entry, err := svc.Apply(r.Context(), ledgersvc.ApplyInput{
			StockItemID: stockID,
			Direction:   direction,
			Quantity:    payload.Quantity,
			PartyID:     partyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// ListTransactions returns a page of ledger entries, newest first. The span
// and date parameters narrow the listing to a calendar window; direction,
// stock_id and party_id filter further.
func ListTransactions(svc ledgersvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		query, err := buildListQuery(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), *query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// ListStockTransactions is the per-item entry listing mounted under the stock
// resource; the path id overrides any stock_id query parameter.
func ListStockTransactions(svc ledgersvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := parseIDParam(r, "stockId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query, err := buildListQuery(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.StockItemID = &id

		page, err := svc.List(r.Context(), *query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func buildListQuery(r *http.Request, loc *time.Location) (*ledgersvc.ListQuery, error) {
	window, _ := resolveWindow(r, loc)
	query := ledgersvc.ListQuery{Window: window}

	q := r.URL.Query()
	if raw := q.Get("direction"); raw != "" {
		direction, err := enums.ParseDirection(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction")
		}
		query.Direction = &direction
	}

	stockID, err := parseOptionalUUID(q.Get("stock_id"))
	if err != nil {
		return nil, err
	}
	query.StockItemID = stockID

	partyID, err := parseOptionalUUID(q.Get("party_id"))
	if err != nil {
		return nil, err
	}
	query.PartyID = partyID

	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}
	query.Pagination = pagination.Params{Limit: limit, Cursor: q.Get("cursor")}

	return &query, nil
}

type applyTransactionRequest struct {
	StockItemID string  `json:"stock_item_id" validate:"required"`
	Direction   string  `json:"direction" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	PartyID     *string `json:"party_id,omitempty"`
}
