package controllers

import (
	"net/http"
	"time"

	"github.com/mkaddour/gestock-backend/api/responses"
	reportsvc "github.com/mkaddour/gestock-backend/internal/reports"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
	"github.com/mkaddour/gestock-backend/pkg/logger"
)

// ReportDashboard returns the aggregate view for the requested window.
func ReportDashboard(svc reportsvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		window, _ := resolveWindow(r, loc)
		dashboard, err := svc.Dashboard(r.Context(), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboard)
	}
}

// ReportStock returns the per-item report with valuations and the period
// breakdown table.
func ReportStock(svc reportsvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		id, err := parseIDParam(r, "stockId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		_, ref := resolveWindow(r, loc)
		report, err := svc.ItemReport(r.Context(), id, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// ReportParty returns the per-counterparty report with monthly activity.
func ReportParty(svc reportsvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		id, err := parseIDParam(r, "partyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		_, ref := resolveWindow(r, loc)
		report, err := svc.PartyReport(r.Context(), id, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// ReportSummary returns the business overview: recent activity, daily counts
// and the current stock valuation.
func ReportSummary(svc reportsvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		_, ref := resolveWindow(r, loc)
		summary, err := svc.Summary(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// ReportValuation returns the catalog valued at sale and purchase prices.
func ReportValuation(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		valuation, err := svc.Valuation(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, valuation)
	}
}
