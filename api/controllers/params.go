package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkaddour/gestock-backend/internal/timewindow"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
)

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return &id, nil
}

// resolveWindow reads the span and date query parameters and returns the
// calendar window containing the reference instant. Missing parameters fall
// back to an unbounded window anchored at the current time.
func resolveWindow(r *http.Request, loc *time.Location) (timewindow.Window, time.Time) {
	q := r.URL.Query()
	ref := timewindow.ParseRef(q.Get("date"), loc)
	span := timewindow.ParseSpan(q.Get("span"))
	return timewindow.Resolve(span, ref), ref
}
