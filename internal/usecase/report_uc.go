package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kirthika/stocklens/internal/domain"
)

const StatusSuccess = "Success"

// ReportUC computes the sales-velocity report for one tenant: resolve the
// schema, load the fact tables, aggregate, done. All state is per call.
type ReportUC struct {
	Schemas domain.SchemaResolver
	Facts   domain.FactLoader

	// Now overrides the report date; nil means time.Now.
	Now func() time.Time
}

func (uc *ReportUC) Report(ctx context.Context, tenantID string, window domain.LaunchWindow, g domain.Granularity) (*domain.Report, error) {
	schema, err := uc.Schemas.Resolve(tenantID)
	if err != nil {
		return nil, err
	}
	facts, err := uc.Facts.Load(ctx, schema, window)
	if err != nil {
		return nil, err
	}
	today := time.Now()
	if uc.Now != nil {
		today = uc.Now()
	}
	rows, err := Aggregate(facts, today, g)
	if err != nil {
		if ce, ok := err.(*domain.ComputationError); ok {
			ce.Tenant = tenantID
		}
		return nil, err
	}
	return &domain.Report{
		Status:          StatusSuccess,
		Database:        tenantID,
		LaunchStartDays: window.StartDays,
		LaunchEndDays:   window.EndDays,
		Today:           today.Format("2006-01-02"),
		Products:        rows,
	}, nil
}

// priceCount keeps price frequencies in first-seen order so the mode
// tie-break stays deterministic.
type priceCount struct {
	price float64
	n     int
}

type accum struct {
	key      domain.GroupKey
	minID    int64
	itemType string
	ids      []int64
	stock    int
	prices   []priceCount
	launch   *time.Time
}

func (a *accum) add(it domain.ItemRow) {
	if len(a.ids) == 0 || it.ID < a.minID {
		a.minID = it.ID
	}
	a.ids = append(a.ids, it.ID)
	a.stock += it.Stock
	found := false
	for i := range a.prices {
		if a.prices[i].price == it.Price {
			a.prices[i].n++
			found = true
			break
		}
	}
	if !found {
		a.prices = append(a.prices, priceCount{price: it.Price, n: 1})
	}
	if it.LaunchDate != nil && (a.launch == nil || it.LaunchDate.Before(*a.launch)) {
		d := *it.LaunchDate
		a.launch = &d
	}
}

func (a *accum) modePrice() float64 {
	best, price := 0, 0.0
	for _, pc := range a.prices {
		if pc.n > best {
			best, price = pc.n, pc.price
		}
	}
	return price
}

// Aggregate joins the fact tables into report rows. Group granularity emits
// one row per (item name, grouping value) in the order items were first seen;
// item granularity emits one row per variant ordered by item name.
func Aggregate(facts *domain.FactSet, today time.Time, g domain.Granularity) ([]domain.ReportRow, error) {
	if facts == nil {
		return nil, &domain.ComputationError{Field: "facts"}
	}

	var groups []*accum
	if g == domain.GranularityItem {
		for _, it := range facts.Items {
			a := &accum{key: domain.GroupKey{Name: it.Name, GroupValue: it.GroupValue}, itemType: it.Type}
			a.add(it)
			groups = append(groups, a)
		}
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].key.Name < groups[j].key.Name
		})
	} else {
		index := map[domain.GroupKey]*accum{}
		for _, it := range facts.Items {
			key := domain.GroupKey{Name: it.Name, GroupValue: it.GroupValue}
			a, ok := index[key]
			if !ok {
				a = &accum{key: key, itemType: it.Type}
				index[key] = a
				groups = append(groups, a)
			}
			a.add(it)
		}
	}

	rows := make([]domain.ReportRow, 0, len(groups))
	for _, a := range groups {
		rows = append(rows, buildRow(a, facts, today))
	}
	return rows, nil
}

func buildRow(a *accum, facts *domain.FactSet, today time.Time) domain.ReportRow {
	var qtySold int64
	for _, id := range a.ids {
		qtySold += facts.QtySold[id]
	}
	eng := facts.Engagement[a.key]

	sizewise := []domain.SizeDetail{}
	inStock := 0
	var lastSale *int
	for _, id := range a.ids {
		for _, sr := range facts.SizeRows[id] {
			sizewise = append(sizewise, domain.SizeDetail{
				Size:                    sr.Size,
				CurrentStock:            sr.Stock,
				TotalQuantitySold:       sr.QtySold,
				AverageDaysBetweenSales: sr.AverageDaysBetweenSales,
				DaysSinceLastSold:       sr.DaysSinceLastSold,
			})
			if sr.Stock > 0 {
				inStock++
			}
			if sr.DaysSinceLastSold != nil && (lastSale == nil || *sr.DaysSinceLastSold < *lastSale) {
				d := *sr.DaysSinceLastSold
				lastSale = &d
			}
		}
	}

	var daySinceLaunch *int
	if a.launch != nil {
		d := daysBetween(*a.launch, today)
		daySinceLaunch = &d
	}

	// A fully sold-out group stopped being sellable at its last sale; count
	// only the days it actually had stock. Otherwise the product is still
	// live (or never sold) and the launch age is the active span.
	daysActive := daySinceLaunch
	if a.stock == 0 && lastSale != nil && daySinceLaunch != nil {
		d := *daySinceLaunch - *lastSale
		daysActive = &d
	}

	pctSold := 0.0
	if denom := qtySold + int64(a.stock); denom > 0 {
		pctSold = round2(decimal.NewFromInt(qtySold).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(denom)))
	}

	perDay := 0.0
	if daysActive != nil && *daysActive != 0 {
		perDay = round2(decimal.NewFromInt(qtySold).Div(decimal.NewFromInt(int64(*daysActive))))
	}

	projected := 0.0
	if perDay != 0 {
		projected = round2(decimal.NewFromInt(int64(a.stock)).Div(decimal.NewFromFloat(perDay)))
	}

	return domain.ReportRow{
		ItemID:                   a.minID,
		ItemName:                 a.key.Name,
		ItemType:                 a.itemType,
		ProductType:              a.key.GroupValue,
		DaySinceLaunch:           daySinceLaunch,
		CurrentStock:             a.stock,
		SalePrice:                a.modePrice(),
		TotalQuantitySold:        qtySold,
		TotalViews:               eng.Views,
		TotalATC:                 eng.ATC,
		TotalStockPercentageSold: pctSold,
		ProjectedDaysToSellOut:   projected,
		PerDayQtyAverage:         perDay,
		SizeSummary: domain.SizeSummary{
			Size:     fmt.Sprintf("%d/%d", inStock, len(sizewise)),
			Sizewise: sizewise,
		},
	}
}

// round2 rounds half away from zero to two decimals, the same policy the
// report has always published.
func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
