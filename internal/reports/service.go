package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkaddour/gestock-backend/internal/timewindow"
	"github.com/mkaddour/gestock-backend/pkg/db/models"
	"github.com/mkaddour/gestock-backend/pkg/enums"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
)

const (
	topN             = 5
	recentEntryLimit = 50
	trailingMonths   = 12
)

// Service assembles the read models consumers render: dashboard KPIs, item
// and party reports, and the global summary.
type Service interface {
	Dashboard(ctx context.Context, window timewindow.Window) (*DashboardDTO, error)
	ItemReport(ctx context.Context, stockID uuid.UUID, ref time.Time) (*ItemReportDTO, error)
	PartyReport(ctx context.Context, partyID uuid.UUID, ref time.Time) (*PartyReportDTO, error)
	Summary(ctx context.Context, ref time.Time) (*SummaryDTO, error)
	Valuation(ctx context.Context) (*ValuationDTO, error)
}

type stockFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
}

type partyFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
}

type service struct {
	repo    Repository
	stocks  stockFinder
	parties partyFinder
}

// NewService builds the reporting service.
func NewService(repo Repository, stockRepo stockFinder, partyRepo partyFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if partyRepo == nil {
		return nil, fmt.Errorf("party repository required")
	}
	return &service{repo: repo, stocks: stockRepo, parties: partyRepo}, nil
}

// PeriodRow is one line of the per-period activity table.
type PeriodRow struct {
	Period        string          `json:"period"`
	SaleCount     int64           `json:"sale_count"`
	SaleTotal     decimal.Decimal `json:"sale_total"`
	PurchaseCount int64           `json:"purchase_count"`
	PurchaseTotal decimal.Decimal `json:"purchase_total"`
}

// DashboardDTO carries the home-screen KPIs for one window.
type DashboardDTO struct {
	SalesCount     int64           `json:"sales_count"`
	Revenue        decimal.Decimal `json:"revenue"`
	Profit         decimal.Decimal `json:"profit"`
	TopSold        []ItemQty       `json:"top_sold"`
	TopBought      []ItemQty       `json:"top_bought"`
	ClientOfPeriod *PartyRevenue   `json:"client_of_period,omitempty"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
}

// ItemReportDTO is the per-item detail report.
type ItemReportDTO struct {
	ID                  uuid.UUID       `json:"id"`
	Product             string          `json:"product"`
	Quantity            int             `json:"quantity"`
	SalePrice           decimal.Decimal `json:"sale_price"`
	PurchasePrice       decimal.Decimal `json:"purchase_price"`
	ValuationAtSale     decimal.Decimal `json:"valuation_at_sale"`
	ValuationAtPurchase decimal.Decimal `json:"valuation_at_purchase"`
	PotentialMargin     decimal.Decimal `json:"potential_margin"`
	MarginPercent       decimal.Decimal `json:"margin_percent"`
	Periods             []PeriodRow     `json:"periods"`
	RecentEntries       []EntrySummary  `json:"recent_entries"`
}

// PartyReportDTO is the per-counterparty detail report.
type PartyReportDTO struct {
	ID               uuid.UUID       `json:"id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Role             enums.PartyRole `json:"role"`
	TransactionCount int64           `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	MostTraded       *ItemQty        `json:"most_traded,omitempty"`
	Periods          []PeriodRow     `json:"periods"`
	MonthlyActivity  []MonthBucket   `json:"monthly_activity"`
	RecentEntries    []EntrySummary  `json:"recent_entries"`
}

// SummaryDTO is the global report data set.
type SummaryDTO struct {
	StockValuation decimal.Decimal   `json:"stock_valuation"`
	MonthCount     int64             `json:"month_count"`
	WeekCount      int64             `json:"week_count"`
	DailyCounts    []DayBucket       `json:"daily_counts"`
	TopStock       []StockQtySummary `json:"top_stock"`
	RecentEntries  []EntrySummary    `json:"recent_entries"`
}

// ValuationDTO is the standalone stock valuation read model.
type ValuationDTO struct {
	AtSalePrice     decimal.Decimal `json:"at_sale_price"`
	AtPurchasePrice decimal.Decimal `json:"at_purchase_price"`
}

// MonthBucket is one month of activity in a trailing-year series.
type MonthBucket struct {
	Month string          `json:"month"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// DayBucket is one day of activity in a month series.
type DayBucket struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// StockQtySummary is a catalog row reduced to its on-hand figures.
type StockQtySummary struct {
	ID       uuid.UUID `json:"id"`
	Product  string    `json:"product"`
	Quantity int       `json:"quantity"`
}

// EntrySummary is a ledger entry reduced for embedding in reports.
type EntrySummary struct {
	ID         uuid.UUID       `json:"id"`
	Product    string          `json:"product,omitempty"`
	PartyName  string          `json:"party_name,omitempty"`
	Direction  enums.Direction `json:"direction"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	NewStockQt int             `json:"new_stock_qt"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (s *service) Dashboard(ctx context.Context, window timewindow.Window) (*DashboardDTO, error) {
	sale := enums.DirectionSale

	salesCount, err := s.repo.Count(ctx, Filter{Direction: &sale, Window: window})
	if err != nil {
		return nil, wrapQuery(err, "count sales")
	}
	revenue, err := s.repo.SumPrice(ctx, Filter{Direction: &sale, Window: window})
	if err != nil {
		return nil, wrapQuery(err, "sum revenue")
	}
	profit, err := s.profit(ctx, window, revenue)
	if err != nil {
		return nil, err
	}
	topSold, err := s.repo.TopItems(ctx, enums.DirectionSale, window, nil, topN)
	if err != nil {
		return nil, wrapQuery(err, "top sold items")
	}
	topBought, err := s.repo.TopItems(ctx, enums.DirectionPurchase, window, nil, topN)
	if err != nil {
		return nil, wrapQuery(err, "top bought items")
	}
	topClients, err := s.repo.TopParties(ctx, window, 1)
	if err != nil {
		return nil, wrapQuery(err, "client of the period")
	}
	valuation, err := s.repo.StockValuation(ctx)
	if err != nil {
		return nil, wrapQuery(err, "stock valuation")
	}

	dto := &DashboardDTO{
		SalesCount:     salesCount,
		Revenue:        revenue,
		Profit:         profit,
		TopSold:        topSold,
		TopBought:      topBought,
		StockValuation: valuation,
	}
	if len(topClients) > 0 {
		dto.ClientOfPeriod = &topClients[0]
	}
	return dto, nil
}

func (s *service) ItemReport(ctx context.Context, stockID uuid.UUID, ref time.Time) (*ItemReportDTO, error) {
	item, err := s.stocks.FindByID(ctx, stockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, wrapQuery(err, "load stock item")
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	unitMargin := item.SalePrice.Sub(item.PurchasePrice)

	marginPercent := decimal.Zero
	if !item.PurchasePrice.IsZero() {
		marginPercent = unitMargin.
			Div(item.PurchasePrice).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	periods, err := s.periodTable(ctx, ref, Filter{StockItemID: &item.ID})
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx, Filter{StockItemID: &item.ID})
	if err != nil {
		return nil, err
	}

	return &ItemReportDTO{
		ID:                  item.ID,
		Product:             item.Product,
		Quantity:            item.Quantity,
		SalePrice:           item.SalePrice,
		PurchasePrice:       item.PurchasePrice,
		ValuationAtSale:     item.SalePrice.Mul(qty),
		ValuationAtPurchase: item.PurchasePrice.Mul(qty),
		PotentialMargin:     unitMargin.Mul(qty),
		MarginPercent:       marginPercent,
		Periods:             periods,
		RecentEntries:       recent,
	}, nil
}

func (s *service) PartyReport(ctx context.Context, partyID uuid.UUID, ref time.Time) (*PartyReportDTO, error) {
	party, err := s.parties.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, wrapQuery(err, "load party")
	}

	filter := Filter{PartyID: &party.ID}
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, wrapQuery(err, "count party entries")
	}
	total, err := s.repo.SumPrice(ctx, filter)
	if err != nil {
		return nil, wrapQuery(err, "sum party totals")
	}

	// Clients are measured on what we sold them, suppliers on what we bought.
	direction := enums.DirectionSale
	if party.Role == enums.PartyRoleSupplier {
		direction = enums.DirectionPurchase
	}
	traded, err := s.repo.TopItems(ctx, direction, timewindow.AllTime(), &party.ID, 1)
	if err != nil {
		return nil, wrapQuery(err, "most traded product")
	}

	periods, err := s.periodTable(ctx, ref, filter)
	if err != nil {
		return nil, err
	}
	monthly, err := s.monthlyActivity(ctx, party.ID, ref)
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx, filter)
	if err != nil {
		return nil, err
	}

	dto := &PartyReportDTO{
		ID:               party.ID,
		FirstName:        party.FirstName,
		LastName:         party.LastName,
		Role:             party.Role,
		TransactionCount: count,
		TotalAmount:      total,
		Periods:          periods,
		MonthlyActivity:  monthly,
		RecentEntries:    recent,
	}
	if len(traded) > 0 {
		dto.MostTraded = &traded[0]
	}
	return dto, nil
}

func (s *service) Summary(ctx context.Context, ref time.Time) (*SummaryDTO, error) {
	valuation, err := s.repo.StockValuation(ctx)
	if err != nil {
		return nil, wrapQuery(err, "stock valuation")
	}
	monthCount, err := s.repo.Count(ctx, Filter{Window: timewindow.ThisMonth(ref)})
	if err != nil {
		return nil, wrapQuery(err, "month count")
	}
	weekCount, err := s.repo.Count(ctx, Filter{Window: timewindow.ThisWeek(ref)})
	if err != nil {
		return nil, wrapQuery(err, "week count")
	}
	daily, err := s.dailyCounts(ctx, ref)
	if err != nil {
		return nil, err
	}
	topStock, err := s.repo.TopStockByQuantity(ctx, topN)
	if err != nil {
		return nil, wrapQuery(err, "top stock by quantity")
	}
	recent, err := s.recent(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	summaries := make([]StockQtySummary, 0, len(topStock))
	for _, item := range topStock {
		summaries = append(summaries, StockQtySummary{ID: item.ID, Product: item.Product, Quantity: item.Quantity})
	}

	return &SummaryDTO{
		StockValuation: valuation,
		MonthCount:     monthCount,
		WeekCount:      weekCount,
		DailyCounts:    daily,
		TopStock:       summaries,
		RecentEntries:  recent,
	}, nil
}

func (s *service) Valuation(ctx context.Context) (*ValuationDTO, error) {
	atSale, err := s.repo.StockValuation(ctx)
	if err != nil {
		return nil, wrapQuery(err, "stock valuation")
	}
	atPurchase, err := s.repo.PurchaseValuation(ctx)
	if err != nil {
		return nil, wrapQuery(err, "purchase valuation")
	}
	return &ValuationDTO{AtSalePrice: atSale, AtPurchasePrice: atPurchase}, nil
}

// profit values the window's sales against the current catalog purchase
// price: revenue minus what the sold quantities would cost to restock today.
func (s *service) profit(ctx context.Context, window timewindow.Window, revenue decimal.Decimal) (decimal.Decimal, error) {
	cost, err := s.repo.SaleCostAtCurrentPrice(ctx, window)
	if err != nil {
		return decimal.Zero, wrapQuery(err, "sale cost")
	}
	return revenue.Sub(cost), nil
}

type namedWindow struct {
	name   string
	window timewindow.Window
}

func (s *service) periodTable(ctx context.Context, ref time.Time, scope Filter) ([]PeriodRow, error) {
	windows := []namedWindow{
		{name: "last_hour", window: timewindow.LastHour(ref)},
		{name: "today", window: timewindow.Today(ref)},
		{name: "yesterday", window: timewindow.Yesterday(ref)},
		{name: "this_week", window: timewindow.ThisWeek(ref)},
		{name: "this_month", window: timewindow.ThisMonth(ref)},
		{name: "all_time", window: timewindow.AllTime()},
	}

	sale := enums.DirectionSale
	purchase := enums.DirectionPurchase

	rows := make([]PeriodRow, 0, len(windows))
	for _, nw := range windows {
		row := PeriodRow{Period: nw.name}

		saleFilter := scope
		saleFilter.Window = nw.window
		saleFilter.Direction = &sale
		count, err := s.repo.Count(ctx, saleFilter)
		if err != nil {
			return nil, wrapQuery(err, "period sale count")
		}
		total, err := s.repo.SumPrice(ctx, saleFilter)
		if err != nil {
			return nil, wrapQuery(err, "period sale total")
		}
		row.SaleCount = count
		row.SaleTotal = total

		purchaseFilter := scope
		purchaseFilter.Window = nw.window
		purchaseFilter.Direction = &purchase
		count, err = s.repo.Count(ctx, purchaseFilter)
		if err != nil {
			return nil, wrapQuery(err, "period purchase count")
		}
		total, err = s.repo.SumPrice(ctx, purchaseFilter)
		if err != nil {
			return nil, wrapQuery(err, "period purchase total")
		}
		row.PurchaseCount = count
		row.PurchaseTotal = total

		rows = append(rows, row)
	}
	return rows, nil
}

// monthlyActivity buckets the trailing year of a party's entries per calendar
// month, oldest first. Bucketing happens in memory to stay portable across
// database engines.
func (s *service) monthlyActivity(ctx context.Context, partyID uuid.UUID, ref time.Time) ([]MonthBucket, error) {
	// Step months from the first of the reference month: AddDate on a day
	// 29-31 reference normalizes past the month boundary and skews the series.
	refMonth := timewindow.ThisMonth(ref)
	first := *refMonth.Start
	start := first.AddDate(0, -(trailingMonths - 1), 0)
	window := timewindow.Window{Start: &start, End: refMonth.End}

	entries, err := s.repo.EntriesIn(ctx, Filter{PartyID: &partyID, Window: window})
	if err != nil {
		return nil, wrapQuery(err, "trailing year entries")
	}

	buckets := make([]MonthBucket, 0, trailingMonths)
	index := map[string]int{}
	for i := trailingMonths - 1; i >= 0; i-- {
		month := first.AddDate(0, -i, 0).Format("2006-01")
		index[month] = len(buckets)
		buckets = append(buckets, MonthBucket{Month: month, Total: decimal.Zero})
	}

	for _, entry := range entries {
		key := entry.CreatedAt.In(ref.Location()).Format("2006-01")
		if pos, ok := index[key]; ok {
			buckets[pos].Count++
			buckets[pos].Total = buckets[pos].Total.Add(entry.Price)
		}
	}
	return buckets, nil
}

// dailyCounts buckets the current month's entries per calendar day.
func (s *service) dailyCounts(ctx context.Context, ref time.Time) ([]DayBucket, error) {
	month := timewindow.ThisMonth(ref)
	entries, err := s.repo.EntriesIn(ctx, Filter{Window: month})
	if err != nil {
		return nil, wrapQuery(err, "current month entries")
	}

	days := map[string]int64{}
	for _, entry := range entries {
		days[entry.CreatedAt.In(ref.Location()).Format("2006-01-02")]++
	}

	buckets := make([]DayBucket, 0, 31)
	for day := *month.Start; day.Before(*month.End) && !day.After(ref); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		buckets = append(buckets, DayBucket{Day: key, Count: days[key]})
	}
	return buckets, nil
}

func (s *service) recent(ctx context.Context, scope Filter) ([]EntrySummary, error) {
	entries, err := s.repo.RecentEntries(ctx, scope, recentEntryLimit)
	if err != nil {
		return nil, wrapQuery(err, "recent entries")
	}
	summaries := make([]EntrySummary, 0, len(entries))
	for i := range entries {
		summaries = append(summaries, toEntrySummary(&entries[i]))
	}
	return summaries, nil
}

func toEntrySummary(entry *models.LedgerEntry) EntrySummary {
	summary := EntrySummary{
		ID:         entry.ID,
		Direction:  entry.Direction,
		Quantity:   entry.Quantity,
		Price:      entry.Price,
		NewStockQt: entry.NewStockQt,
		CreatedAt:  entry.CreatedAt,
	}
	if entry.StockItem != nil {
		summary.Product = entry.StockItem.Product
	}
	if entry.Party != nil {
		summary.PartyName = entry.Party.FirstName + " " + entry.Party.LastName
	}
	return summary
}

func wrapQuery(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
