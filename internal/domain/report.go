package domain

import (
	"context"
	"time"
)

// ItemRow is one stocked variant as loaded from a tenant store, already
// normalized to canonical field names.
type ItemRow struct {
	ID         int64
	Name       string
	Type       string
	GroupValue string // value of the tenant's grouping column
	LaunchDate *time.Time
	Stock      int
	Price      float64
	Size       string
}

// GroupKey identifies a product group: all variants sharing a name and a
// grouping-column value.
type GroupKey struct {
	Name       string
	GroupValue string
}

type Engagement struct {
	Views int64
	ATC   int64
}

// SizeRow is the per-variant sales breakdown for one item id.
// DaysSinceLastSold is nil when the variant never sold; zero means it sold
// today.
type SizeRow struct {
	ItemID                  int64
	Size                    string
	Stock                   int
	QtySold                 int64
	AverageDaysBetweenSales float64
	DaysSinceLastSold       *int
}

// FactSet carries the four raw tables one report computation joins.
type FactSet struct {
	Items      []ItemRow
	QtySold    map[int64]int64
	Engagement map[GroupKey]Engagement
	SizeRows   map[int64][]SizeRow
}

// LaunchWindow bounds the days-since-launch filter, inclusive on both ends.
// An inverted window selects nothing.
type LaunchWindow struct {
	StartDays int
	EndDays   int
}

type Granularity string

const (
	// GranularityGroup emits one row per (name, group value) product group.
	// This is the canonical report shape.
	GranularityGroup Granularity = "group"
	// GranularityItem emits one row per stocked variant, ordered by name.
	GranularityItem Granularity = "item"
)

type SizeDetail struct {
	Size                    string  `json:"size"`
	CurrentStock            int     `json:"current_stock"`
	TotalQuantitySold       int64   `json:"total_quantity_sold"`
	AverageDaysBetweenSales float64 `json:"average_days_between_sales"`
	DaysSinceLastSold       *int    `json:"days_since_last_sold"`
}

type SizeSummary struct {
	Size     string       `json:"size"` // "in_stock/total" over the flattened size rows
	Sizewise []SizeDetail `json:"sizewise"`
}

type ReportRow struct {
	ItemID                   int64       `json:"item_id"`
	ItemName                 string      `json:"item_name"`
	ItemType                 string      `json:"item_type"`
	ProductType              string      `json:"product_type"`
	DaySinceLaunch           *int        `json:"day_since_launch"`
	CurrentStock             int         `json:"current_stock"`
	SalePrice                float64     `json:"sale_price"`
	TotalQuantitySold        int64       `json:"total_quantity_sold"`
	TotalViews               int64       `json:"total_views"`
	TotalATC                 int64       `json:"total_atc"`
	TotalStockPercentageSold float64     `json:"total_stock_percentage_sold"`
	ProjectedDaysToSellOut   float64     `json:"projected_days_to_sell_out"`
	PerDayQtyAverage         float64     `json:"per_day_qty_average"`
	SizeSummary              SizeSummary `json:"size_summary"`
}

type Report struct {
	Status          string      `json:"status"`
	Database        string      `json:"database"`
	LaunchStartDays int         `json:"launch_start_days"`
	LaunchEndDays   int         `json:"launch_end_days"`
	Today           string      `json:"today"`
	Products        []ReportRow `json:"products"`
}

type SchemaResolver interface {
	Resolve(tenantID string) (TenantSchema, error)
}

type FactLoader interface {
	Load(ctx context.Context, schema TenantSchema, window LaunchWindow) (*FactSet, error)
}
