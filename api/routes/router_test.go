package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	ledgersvc "github.com/mkaddour/gestock-backend/internal/ledger"
	partysvc "github.com/mkaddour/gestock-backend/internal/parties"
	reportsvc "github.com/mkaddour/gestock-backend/internal/reports"
	stocksvc "github.com/mkaddour/gestock-backend/internal/stocks"
	"github.com/mkaddour/gestock-backend/internal/timewindow"
	"github.com/mkaddour/gestock-backend/pkg/config"
	"github.com/mkaddour/gestock-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubIdempotencyStore struct {
	data map[string]string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{data: make(map[string]string)}
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	s.data[key] = str
	return true, nil
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

type stubStockService struct{}

func (stubStockService) Create(context.Context, stocksvc.CreateStockInput) (*stocksvc.StockDTO, error) {
	return &stocksvc.StockDTO{}, nil
}

func (stubStockService) Update(context.Context, uuid.UUID, stocksvc.UpdateStockInput) (*stocksvc.StockDTO, error) {
	return &stocksvc.StockDTO{}, nil
}

func (stubStockService) Delete(context.Context, uuid.UUID) error {
	return nil
}

func (stubStockService) GetByID(context.Context, uuid.UUID) (*stocksvc.StockDTO, error) {
	return &stocksvc.StockDTO{}, nil
}

func (stubStockService) List(context.Context) ([]stocksvc.StockDTO, error) {
	return []stocksvc.StockDTO{}, nil
}

type stubPartyService struct{}

func (stubPartyService) Create(context.Context, partysvc.CreatePartyInput) (*partysvc.PartyDTO, error) {
	return &partysvc.PartyDTO{}, nil
}

func (stubPartyService) Update(context.Context, uuid.UUID, partysvc.UpdatePartyInput) (*partysvc.PartyDTO, error) {
	return &partysvc.PartyDTO{}, nil
}

func (stubPartyService) Delete(context.Context, uuid.UUID) error {
	return nil
}

func (stubPartyService) GetByID(context.Context, uuid.UUID) (*partysvc.PartyDTO, error) {
	return &partysvc.PartyDTO{}, nil
}

func (stubPartyService) List(context.Context, string) ([]partysvc.PartyDTO, error) {
	return []partysvc.PartyDTO{}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) Apply(context.Context, ledgersvc.ApplyInput) (*ledgersvc.EntryDTO, error) {
	return &ledgersvc.EntryDTO{}, nil
}

func (stubLedgerService) List(context.Context, ledgersvc.ListQuery) (*ledgersvc.PageDTO, error) {
	return &ledgersvc.PageDTO{}, nil
}

type stubReportService struct{}

func (stubReportService) Dashboard(context.Context, timewindow.Window) (*reportsvc.DashboardDTO, error) {
	return &reportsvc.DashboardDTO{}, nil
}

func (stubReportService) ItemReport(context.Context, uuid.UUID, time.Time) (*reportsvc.ItemReportDTO, error) {
	return &reportsvc.ItemReportDTO{}, nil
}

func (stubReportService) PartyReport(context.Context, uuid.UUID, time.Time) (*reportsvc.PartyReportDTO, error) {
	return &reportsvc.PartyReportDTO{}, nil
}

func (stubReportService) Summary(context.Context, time.Time) (*reportsvc.SummaryDTO, error) {
	return &reportsvc.SummaryDTO{}, nil
}

func (stubReportService) Valuation(context.Context) (*reportsvc.ValuationDTO, error) {
	return &reportsvc.ValuationDTO{}, nil
}

func newTestRouter(t *testing.T, dbErr error) http.Handler {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{Env: "test", Port: "0"}}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		time.UTC,
		stubPinger{err: dbErr},
		stubPinger{},
		newStubIdempotencyStore(),
		prometheus.NewRegistry(),
		stubStockService{},
		stubPartyService{},
		stubLedgerService{},
		stubReportService{},
	)
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	live := httptest.NewRecorder()
	router.ServeHTTP(live, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if live.Code != http.StatusOK {
		t.Fatalf("live expected 200 got %d", live.Code)
	}
	if live.Header().Get("X-Gestock-Env") != "test" {
		t.Fatalf("expected env header on live response")
	}

	ready := httptest.NewRecorder()
	router.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if ready.Code != http.StatusOK {
		t.Fatalf("ready expected 200 got %d", ready.Code)
	}
}

func TestRouterReadyFailsWhenDatabaseDown(t *testing.T) {
	router := newTestRouter(t, context.DeadlineExceeded)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "unreachable") {
		t.Fatalf("expected failing check in body, got %s", resp.Body.String())
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterStockRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	list := httptest.NewRecorder()
	router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/v1/stocks", nil))
	if list.Code != http.StatusOK {
		t.Fatalf("list expected 200 got %d", list.Code)
	}

	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/"+uuid.NewString(), nil))
	if get.Code != http.StatusOK {
		t.Fatalf("get expected 200 got %d", get.Code)
	}

	badID := httptest.NewRecorder()
	router.ServeHTTP(badID, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/not-a-uuid", nil))
	if badID.Code != http.StatusBadRequest {
		t.Fatalf("invalid id expected 400 got %d", badID.Code)
	}
}

func TestRouterTransactionApplyRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t, nil)

	body := `{"stock_item_id":"` + uuid.NewString() + `","direction":"sale","quantity":1}`

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", missing.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestRouterNestedStockRoutes(t *testing.T) {
	router := newTestRouter(t, nil)
	id := uuid.NewString()

	report := httptest.NewRecorder()
	router.ServeHTTP(report, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/"+id+"/report", nil))
	if report.Code != http.StatusOK {
		t.Fatalf("stock report expected 200 got %d", report.Code)
	}

	entries := httptest.NewRecorder()
	router.ServeHTTP(entries, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/"+id+"/transactions?span=month", nil))
	if entries.Code != http.StatusOK {
		t.Fatalf("stock transactions expected 200 got %d", entries.Code)
	}

	party := httptest.NewRecorder()
	router.ServeHTTP(party, httptest.NewRequest(http.MethodGet, "/api/v1/parties/"+id+"/report", nil))
	if party.Code != http.StatusOK {
		t.Fatalf("party report expected 200 got %d", party.Code)
	}
}
