package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirthika/stocklens/internal/domain"
)

var today = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	d := today.AddDate(0, 0, -n)
	return &d
}

func intp(n int) *int { return &n }

func emptyFacts() *domain.FactSet {
	return &domain.FactSet{
		QtySold:    map[int64]int64{},
		Engagement: map[domain.GroupKey]domain.Engagement{},
		SizeRows:   map[int64][]domain.SizeRow{},
	}
}

// Fully sold out with recorded sales: the active span ends at the last sale,
// and the velocity metrics follow from it.
func TestAggregateSoldOutGroup(t *testing.T) {
	facts := emptyFacts()
	facts.Items = []domain.ItemRow{
		{ID: 1, Name: "Dress A", Type: "Dress", GroupValue: "Dresses", LaunchDate: daysAgo(30), Stock: 0, Price: 1499, Size: "S"},
		{ID: 2, Name: "Dress A", Type: "Dress", GroupValue: "Dresses", LaunchDate: daysAgo(30), Stock: 0, Price: 1499, Size: "M"},
	}
	facts.QtySold = map[int64]int64{1: 5, 2: 3}
	facts.Engagement[domain.GroupKey{Name: "Dress A", GroupValue: "Dresses"}] = domain.Engagement{Views: 120, ATC: 14}
	facts.SizeRows = map[int64][]domain.SizeRow{
		1: {{ItemID: 1, Size: "S", Stock: 0, QtySold: 5, AverageDaysBetweenSales: 4, DaysSinceLastSold: intp(10)}},
		2: {{ItemID: 2, Size: "M", Stock: 0, QtySold: 3, AverageDaysBetweenSales: 7, DaysSinceLastSold: intp(20)}},
	}

	rows, err := Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ItemID != 1 {
		t.Errorf("ItemID = %d, want min id 1", row.ItemID)
	}
	if row.CurrentStock != 0 || row.TotalQuantitySold != 8 {
		t.Errorf("stock/qty = %d/%d, want 0/8", row.CurrentStock, row.TotalQuantitySold)
	}
	if row.DaySinceLaunch == nil || *row.DaySinceLaunch != 30 {
		t.Errorf("DaySinceLaunch = %v, want 30", row.DaySinceLaunch)
	}
	// days_active = 30 - min(10, 20) = 20 → 8/20 per day
	if row.PerDayQtyAverage != 0.4 {
		t.Errorf("PerDayQtyAverage = %v, want 0.4", row.PerDayQtyAverage)
	}
	if row.ProjectedDaysToSellOut != 0 {
		t.Errorf("ProjectedDaysToSellOut = %v, want 0 with no stock", row.ProjectedDaysToSellOut)
	}
	if row.TotalStockPercentageSold != 100 {
		t.Errorf("TotalStockPercentageSold = %v, want 100", row.TotalStockPercentageSold)
	}
	if row.TotalViews != 120 || row.TotalATC != 14 {
		t.Errorf("engagement = %d/%d, want 120/14", row.TotalViews, row.TotalATC)
	}
	if row.SizeSummary.Size != "0/2" {
		t.Errorf("SizeSummary.Size = %q, want 0/2", row.SizeSummary.Size)
	}
	if len(row.SizeSummary.Sizewise) != 2 {
		t.Fatalf("sizewise = %d entries, want 2", len(row.SizeSummary.Sizewise))
	}
}

// Never sold, positive stock: everything velocity-related stays zero and the
// active span is the launch age.
func TestAggregateNeverSold(t *testing.T) {
	facts := emptyFacts()
	facts.Items = []domain.ItemRow{
		{ID: 7, Name: "Top B", Type: "Top", GroupValue: "Tops", LaunchDate: daysAgo(10), Stock: 50, Price: 899, Size: "L"},
	}
	facts.SizeRows = map[int64][]domain.SizeRow{
		7: {{ItemID: 7, Size: "L", Stock: 50, QtySold: 0}},
	}

	rows, err := Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	row := rows[0]
	if row.TotalQuantitySold != 0 {
		t.Errorf("TotalQuantitySold = %d, want 0", row.TotalQuantitySold)
	}
	if row.TotalStockPercentageSold != 0 {
		t.Errorf("TotalStockPercentageSold = %v, want 0", row.TotalStockPercentageSold)
	}
	if row.PerDayQtyAverage != 0 || row.ProjectedDaysToSellOut != 0 {
		t.Errorf("velocity = %v/%v, want 0/0", row.PerDayQtyAverage, row.ProjectedDaysToSellOut)
	}
	if row.SizeSummary.Sizewise[0].DaysSinceLastSold != nil {
		t.Errorf("DaysSinceLastSold should stay absent when never sold")
	}
	if row.DaySinceLaunch == nil || *row.DaySinceLaunch != 10 {
		t.Errorf("DaySinceLaunch = %v, want 10", row.DaySinceLaunch)
	}
}

// With stock still on hand the active span is the launch age even when sales
// exist, and the sell-out projection follows the per-day average.
func TestAggregateActiveProduct(t *testing.T) {
	facts := emptyFacts()
	facts.Items = []domain.ItemRow{
		{ID: 3, Name: "Kurta C", Type: "Kurta", GroupValue: "Ethnic", LaunchDate: daysAgo(40), Stock: 10, Price: 1299, Size: "S"},
	}
	facts.QtySold = map[int64]int64{3: 20}
	facts.SizeRows = map[int64][]domain.SizeRow{
		3: {{ItemID: 3, Size: "S", Stock: 10, QtySold: 20, AverageDaysBetweenSales: 2, DaysSinceLastSold: intp(1)}},
	}

	rows, err := Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	row := rows[0]
	// 20/40 = 0.5 per day; 10 / 0.5 = 20 days to sell out
	if row.PerDayQtyAverage != 0.5 {
		t.Errorf("PerDayQtyAverage = %v, want 0.5", row.PerDayQtyAverage)
	}
	if row.ProjectedDaysToSellOut != 20 {
		t.Errorf("ProjectedDaysToSellOut = %v, want 20", row.ProjectedDaysToSellOut)
	}
	// 100 * 20 / 30
	if row.TotalStockPercentageSold != 66.67 {
		t.Errorf("TotalStockPercentageSold = %v, want 66.67", row.TotalStockPercentageSold)
	}
}

func TestAggregateModePriceFirstSeenTieBreak(t *testing.T) {
	facts := emptyFacts()
	for i, price := range []float64{999, 1299, 1299, 999} {
		facts.Items = append(facts.Items, domain.ItemRow{
			ID: int64(i + 1), Name: "Saree D", GroupValue: "Sarees", LaunchDate: daysAgo(15), Stock: 1, Price: price,
		})
	}
	rows, err := Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rows[0].SalePrice != 999 {
		t.Errorf("SalePrice = %v, want first-seen 999 on tied counts", rows[0].SalePrice)
	}

	facts.Items = append(facts.Items, domain.ItemRow{ID: 5, Name: "Saree D", GroupValue: "Sarees", Stock: 1, Price: 1299})
	rows, err = Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rows[0].SalePrice != 1299 {
		t.Errorf("SalePrice = %v, want majority 1299", rows[0].SalePrice)
	}
}

func TestAggregateGroupOrderIsFirstEncounter(t *testing.T) {
	facts := emptyFacts()
	facts.Items = []domain.ItemRow{
		{ID: 1, Name: "Zeta", GroupValue: "Tops", LaunchDate: daysAgo(5), Stock: 1},
		{ID: 2, Name: "Alpha", GroupValue: "Tops", LaunchDate: daysAgo(5), Stock: 1},
		{ID: 3, Name: "Zeta", GroupValue: "Tops", LaunchDate: daysAgo(5), Stock: 1},
	}
	rows, err := Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rows) != 2 || rows[0].ItemName != "Zeta" || rows[1].ItemName != "Alpha" {
		t.Fatalf("group order = %+v, want Zeta then Alpha", rows)
	}
}

func TestAggregateItemGranularityOrdersByName(t *testing.T) {
	facts := emptyFacts()
	facts.Items = []domain.ItemRow{
		{ID: 1, Name: "Zeta", GroupValue: "Tops", LaunchDate: daysAgo(5), Stock: 1, Size: "S"},
		{ID: 2, Name: "Alpha", GroupValue: "Tops", LaunchDate: daysAgo(5), Stock: 1, Size: "M"},
		{ID: 3, Name: "Zeta", GroupValue: "Tops", LaunchDate: daysAgo(5), Stock: 0, Size: "M"},
	}
	facts.QtySold = map[int64]int64{3: 4}
	facts.SizeRows = map[int64][]domain.SizeRow{
		1: {{ItemID: 1, Size: "S", Stock: 1}},
		2: {{ItemID: 2, Size: "M", Stock: 1}},
		3: {{ItemID: 3, Size: "M", Stock: 0, QtySold: 4, DaysSinceLastSold: intp(2)}},
	}
	rows, err := Aggregate(facts, today, domain.GranularityItem)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].ItemName != "Alpha" || rows[1].ItemName != "Zeta" || rows[2].ItemName != "Zeta" {
		t.Fatalf("order = %s,%s,%s; want Alpha,Zeta,Zeta", rows[0].ItemName, rows[1].ItemName, rows[2].ItemName)
	}
	// per-variant rows roll up nothing across siblings
	if rows[2].TotalQuantitySold != 4 || rows[2].CurrentStock != 0 {
		t.Errorf("variant row qty/stock = %d/%d, want 4/0", rows[2].TotalQuantitySold, rows[2].CurrentStock)
	}
	if rows[2].SizeSummary.Size != "0/1" {
		t.Errorf("variant SizeSummary.Size = %q, want 0/1", rows[2].SizeSummary.Size)
	}
}

func TestAggregateEmptyItems(t *testing.T) {
	rows, err := Aggregate(emptyFacts(), today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}

func TestAggregatePercentageStaysInRange(t *testing.T) {
	facts := emptyFacts()
	facts.Items = []domain.ItemRow{
		{ID: 1, Name: "A", GroupValue: "G", LaunchDate: daysAgo(100), Stock: 3},
		{ID: 2, Name: "B", GroupValue: "G", LaunchDate: daysAgo(100), Stock: 0},
	}
	facts.QtySold = map[int64]int64{1: 997, 2: 0}
	rows, err := Aggregate(facts, today, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, row := range rows {
		if row.TotalStockPercentageSold < 0 || row.TotalStockPercentageSold > 100 {
			t.Errorf("%s: percentage %v out of [0,100]", row.ItemName, row.TotalStockPercentageSold)
		}
	}
	if rows[1].TotalStockPercentageSold != 0 {
		t.Errorf("zero qty and zero stock should report 0, got %v", rows[1].TotalStockPercentageSold)
	}
}

type fixedResolver struct {
	schema domain.TenantSchema
	err    error
}

func (f fixedResolver) Resolve(string) (domain.TenantSchema, error) { return f.schema, f.err }

type fixedLoader struct {
	facts *domain.FactSet
	err   error
}

func (f fixedLoader) Load(context.Context, domain.TenantSchema, domain.LaunchWindow) (*domain.FactSet, error) {
	return f.facts, f.err
}

func TestReportEnvelope(t *testing.T) {
	uc := &ReportUC{
		Schemas: fixedResolver{schema: domain.TenantSchema{Tenant: "zing"}},
		Facts:   fixedLoader{facts: emptyFacts()},
		Now:     func() time.Time { return today },
	}
	rep, err := uc.Report(context.Background(), "zing", domain.LaunchWindow{StartDays: 5, EndDays: 2}, domain.GranularityGroup)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", rep.Status, StatusSuccess)
	}
	if rep.Today != "2026-08-31" {
		t.Errorf("Today = %q, want 2026-08-31", rep.Today)
	}
	if len(rep.Products) != 0 {
		t.Errorf("inverted window should yield no products, got %d", len(rep.Products))
	}
	if rep.LaunchStartDays != 5 || rep.LaunchEndDays != 2 {
		t.Errorf("window echoed as %d..%d, want 5..2", rep.LaunchStartDays, rep.LaunchEndDays)
	}
}

func TestReportPropagatesResolverError(t *testing.T) {
	uc := &ReportUC{
		Schemas: fixedResolver{err: domain.ErrUnknownTenant},
		Facts:   fixedLoader{facts: emptyFacts()},
	}
	_, err := uc.Report(context.Background(), "ghost", domain.LaunchWindow{}, domain.GranularityGroup)
	if !errors.Is(err, domain.ErrUnknownTenant) {
		t.Fatalf("err = %v, want ErrUnknownTenant", err)
	}
}

func TestReportPropagatesLoaderError(t *testing.T) {
	want := &domain.DataSourceError{Tenant: "zing", Op: "connect", Err: errors.New("dial tcp: refused")}
	uc := &ReportUC{
		Schemas: fixedResolver{schema: domain.TenantSchema{Tenant: "zing"}},
		Facts:   fixedLoader{err: want},
	}
	_, err := uc.Report(context.Background(), "zing", domain.LaunchWindow{}, domain.GranularityGroup)
	var dse *domain.DataSourceError
	if !errors.As(err, &dse) || dse.Tenant != "zing" {
		t.Fatalf("err = %v, want DataSourceError for zing", err)
	}
}
