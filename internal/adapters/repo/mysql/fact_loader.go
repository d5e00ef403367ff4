package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kirthika/stocklens/internal/domain"
)

// FactLoader runs the read-only aggregate queries one report needs and hands
// back plain in-memory tables. No retries: a failed query fails the request.
type FactLoader struct {
	provider *Provider
}

func NewFactLoader(p *Provider) *FactLoader { return &FactLoader{provider: p} }

func (l *FactLoader) Load(ctx context.Context, schema domain.TenantSchema, window domain.LaunchWindow) (*domain.FactSet, error) {
	db, release, err := l.provider.Open(schema.Tenant)
	if err != nil {
		return nil, &domain.DataSourceError{Tenant: schema.Tenant, Op: "connect", Err: err}
	}
	defer release()
	db = db.WithContext(ctx)

	facts := &domain.FactSet{
		QtySold:    map[int64]int64{},
		Engagement: map[domain.GroupKey]domain.Engagement{},
		SizeRows:   map[int64][]domain.SizeRow{},
	}

	if facts.Items, err = l.loadItems(db, schema, window); err != nil {
		return nil, &domain.DataSourceError{Tenant: schema.Tenant, Op: "items", Err: err}
	}
	if err = l.loadQtySold(db, schema, facts.QtySold); err != nil {
		return nil, &domain.DataSourceError{Tenant: schema.Tenant, Op: "sales", Err: err}
	}
	if err = l.loadEngagement(db, schema, facts.Engagement); err != nil {
		return nil, &domain.DataSourceError{Tenant: schema.Tenant, Op: "viewsatc", Err: err}
	}
	if err = l.loadSizeRows(db, schema, window, facts.SizeRows); err != nil {
		return nil, &domain.DataSourceError{Tenant: schema.Tenant, Op: "sizes", Err: err}
	}
	return facts, nil
}

func q(ident string) string { return "`" + ident + "`" }

type itemRecord struct {
	ID         int64      `gorm:"column:id"`
	Name       string     `gorm:"column:name"`
	ItemType   string     `gorm:"column:item_type"`
	GroupValue string     `gorm:"column:group_value"`
	LaunchDate *time.Time `gorm:"column:launch_date"`
	Stock      int        `gorm:"column:stock"`
	Price      float64    `gorm:"column:price"`
	Size       string     `gorm:"column:size"`
}

// loadItems selects the variants whose launch age falls in the inclusive
// window. An inverted window matches nothing, which MySQL's BETWEEN already
// gives us. Stock and price columns are varchar on some tenant schemas, so
// both go through CAST.
func (l *FactLoader) loadItems(db *gorm.DB, schema domain.TenantSchema, window domain.LaunchWindow) ([]domain.ItemRow, error) {
	it := schema.Items
	sizeExpr := "''"
	if it.HasSize {
		sizeExpr = fmt.Sprintf("IFNULL(i.%s,'')", q(it.Size))
	}
	query := fmt.Sprintf(`
		SELECT i.%s AS id,
		       IFNULL(i.%s,'') AS name,
		       IFNULL(i.%s,'') AS item_type,
		       IFNULL(i.%s,'') AS group_value,
		       i.%s AS launch_date,
		       CAST(IFNULL(i.%s,0) AS SIGNED) AS stock,
		       CAST(IFNULL(i.%s,0) AS DECIMAL(12,2)) AS price,
		       %s AS size
		FROM %s i
		WHERE DATEDIFF(CURRENT_DATE, i.%s) BETWEEN ? AND ?
		ORDER BY i.%s`,
		q(it.ID), q(it.Name), q(it.Type), q(it.Group), q(it.LaunchDate),
		q(it.Stock), q(it.Price), sizeExpr, q(it.Table), q(it.LaunchDate), q(it.ID))

	var recs []itemRecord
	if err := db.Raw(query, window.StartDays, window.EndDays).Scan(&recs).Error; err != nil {
		return nil, err
	}
	rows := make([]domain.ItemRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, domain.ItemRow{
			ID:         r.ID,
			Name:       r.Name,
			Type:       r.ItemType,
			GroupValue: r.GroupValue,
			LaunchDate: r.LaunchDate,
			Stock:      r.Stock,
			Price:      r.Price,
			Size:       r.Size,
		})
	}
	return rows, nil
}

func (l *FactLoader) loadQtySold(db *gorm.DB, schema domain.TenantSchema, out map[int64]int64) error {
	s := schema.Sales
	query := fmt.Sprintf(`
		SELECT s.%s AS item_id, CAST(IFNULL(SUM(s.%s),0) AS SIGNED) AS qty
		FROM %s s
		GROUP BY s.%s`,
		q(s.ItemID), q(s.Quantity), q(s.Table), q(s.ItemID))

	var recs []struct {
		ItemID int64 `gorm:"column:item_id"`
		Qty    int64 `gorm:"column:qty"`
	}
	if err := db.Raw(query).Scan(&recs).Error; err != nil {
		return err
	}
	for _, r := range recs {
		out[r.ItemID] = r.Qty
	}
	return nil
}

func (l *FactLoader) loadEngagement(db *gorm.DB, schema domain.TenantSchema, out map[domain.GroupKey]domain.Engagement) error {
	it, v := schema.Items, schema.Views
	query := fmt.Sprintf(`
		SELECT IFNULL(i.%s,'') AS name,
		       IFNULL(i.%s,'') AS group_value,
		       CAST(IFNULL(SUM(v.%s),0) AS SIGNED) AS views,
		       CAST(IFNULL(SUM(v.%s),0) AS SIGNED) AS atc
		FROM %s v
		JOIN %s i ON i.%s = v.%s
		GROUP BY i.%s, i.%s`,
		q(it.Name), q(it.Group), q(v.Viewed), q(v.AddedToCart),
		q(v.Table), q(it.Table), q(it.ID), q(v.ItemID), q(it.Name), q(it.Group))

	var recs []struct {
		Name       string `gorm:"column:name"`
		GroupValue string `gorm:"column:group_value"`
		Views      int64  `gorm:"column:views"`
		ATC        int64  `gorm:"column:atc"`
	}
	if err := db.Raw(query).Scan(&recs).Error; err != nil {
		return err
	}
	for _, r := range recs {
		out[domain.GroupKey{Name: r.Name, GroupValue: r.GroupValue}] = domain.Engagement{Views: r.Views, ATC: r.ATC}
	}
	return nil
}

// loadSizeRows builds the per-variant breakdown for every item in the launch
// window: stock, lifetime quantity sold, average gap between consecutive
// distinct sale dates, and days since the most recent sale (absent when the
// variant never sold).
func (l *FactLoader) loadSizeRows(db *gorm.DB, schema domain.TenantSchema, window domain.LaunchWindow, out map[int64][]domain.SizeRow) error {
	it, s := schema.Items, schema.Sales

	sizeExpr := "''"
	if it.HasSize {
		sizeExpr = fmt.Sprintf("IFNULL(i.%s,'')", q(it.Size))
	}
	query := fmt.Sprintf(`
		SELECT i.%s AS item_id,
		       %s AS size,
		       CAST(IFNULL(i.%s,0) AS SIGNED) AS stock,
		       CAST(IFNULL(SUM(s.%s),0) AS SIGNED) AS qty_sold
		FROM %s i
		LEFT JOIN %s s ON s.%s = i.%s
		WHERE DATEDIFF(CURRENT_DATE, i.%s) BETWEEN ? AND ?
		GROUP BY i.%s`,
		q(it.ID), sizeExpr, q(it.Stock), q(s.Quantity),
		q(it.Table), q(s.Table), q(s.ItemID), q(it.ID), q(it.LaunchDate), q(it.ID))

	var recs []struct {
		ItemID  int64  `gorm:"column:item_id"`
		Size    string `gorm:"column:size"`
		Stock   int    `gorm:"column:stock"`
		QtySold int64  `gorm:"column:qty_sold"`
	}
	if err := db.Raw(query, window.StartDays, window.EndDays).Scan(&recs).Error; err != nil {
		return err
	}

	avgGaps, err := l.loadSaleGaps(db, schema)
	if err != nil {
		return err
	}
	lastSold, err := l.loadLastSold(db, schema)
	if err != nil {
		return err
	}

	for _, r := range recs {
		row := domain.SizeRow{
			ItemID:                  r.ItemID,
			Size:                    r.Size,
			Stock:                   r.Stock,
			QtySold:                 r.QtySold,
			AverageDaysBetweenSales: avgGaps[r.ItemID],
		}
		if days, ok := lastSold[r.ItemID]; ok {
			d := days
			row.DaysSinceLastSold = &d
		}
		out[r.ItemID] = append(out[r.ItemID], row)
	}
	return nil
}

func (l *FactLoader) loadSaleGaps(db *gorm.DB, schema domain.TenantSchema) (map[int64]float64, error) {
	s := schema.Sales
	query := fmt.Sprintf(`
		SELECT t.item_id, AVG(t.diff_days) AS avg_days
		FROM (
			SELECT d.item_id,
			       DATEDIFF(d.sale_date, LAG(d.sale_date) OVER (PARTITION BY d.item_id ORDER BY d.sale_date)) AS diff_days
			FROM (SELECT DISTINCT s.%s AS item_id, s.%s AS sale_date FROM %s s) d
		) t
		WHERE t.diff_days IS NOT NULL
		GROUP BY t.item_id`,
		q(s.ItemID), q(s.Date), q(s.Table))

	var recs []struct {
		ItemID  int64   `gorm:"column:item_id"`
		AvgDays float64 `gorm:"column:avg_days"`
	}
	if err := db.Raw(query).Scan(&recs).Error; err != nil {
		return nil, err
	}
	gaps := make(map[int64]float64, len(recs))
	for _, r := range recs {
		gaps[r.ItemID] = r.AvgDays
	}
	return gaps, nil
}

func (l *FactLoader) loadLastSold(db *gorm.DB, schema domain.TenantSchema) (map[int64]int, error) {
	s := schema.Sales
	query := fmt.Sprintf(`
		SELECT s.%s AS item_id, DATEDIFF(CURRENT_DATE, MAX(s.%s)) AS days_ago
		FROM %s s
		GROUP BY s.%s`,
		q(s.ItemID), q(s.Date), q(s.Table), q(s.ItemID))

	var recs []struct {
		ItemID  int64 `gorm:"column:item_id"`
		DaysAgo int   `gorm:"column:days_ago"`
	}
	if err := db.Raw(query).Scan(&recs).Error; err != nil {
		return nil, err
	}
	last := make(map[int64]int, len(recs))
	for _, r := range recs {
		last[r.ItemID] = r.DaysAgo
	}
	return last, nil
}
