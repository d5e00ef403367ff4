package httpserver

import (
	"strconv"

	"github.com/kirthika/stocklens/internal/domain"
)

// flatHeader is the fixed column set of the tabular export: group-level
// fields repeated on every size-variant row.
var flatHeader = []string{
	"item_id", "item_name", "item_type", "product_type", "day_since_launch",
	"current_stock", "sale_price", "total_quantity_sold", "total_views",
	"total_atc", "total_stock_percentage_sold", "projected_days_to_sell_out",
	"per_day_qty_average", "size_summary", "size", "variant_stock",
	"variant_quantity_sold", "average_days_between_sales", "days_since_last_sold",
}

// flatRecords reshapes the nested report into header + one record per size
// variant. No aggregation happens here.
func flatRecords(rep *domain.Report) [][]string {
	records := [][]string{flatHeader}
	for _, p := range rep.Products {
		base := []string{
			strconv.FormatInt(p.ItemID, 10),
			p.ItemName,
			p.ItemType,
			p.ProductType,
			optInt(p.DaySinceLaunch),
			strconv.Itoa(p.CurrentStock),
			strconv.FormatFloat(p.SalePrice, 'f', 2, 64),
			strconv.FormatInt(p.TotalQuantitySold, 10),
			strconv.FormatInt(p.TotalViews, 10),
			strconv.FormatInt(p.TotalATC, 10),
			strconv.FormatFloat(p.TotalStockPercentageSold, 'f', 2, 64),
			strconv.FormatFloat(p.ProjectedDaysToSellOut, 'f', 2, 64),
			strconv.FormatFloat(p.PerDayQtyAverage, 'f', 2, 64),
			p.SizeSummary.Size,
		}
		if len(p.SizeSummary.Sizewise) == 0 {
			records = append(records, append(append([]string{}, base...), "", "", "", "", ""))
			continue
		}
		for _, sd := range p.SizeSummary.Sizewise {
			rec := append(append([]string{}, base...),
				sd.Size,
				strconv.Itoa(sd.CurrentStock),
				strconv.FormatInt(sd.TotalQuantitySold, 10),
				strconv.FormatFloat(sd.AverageDaysBetweenSales, 'f', 2, 64),
				optInt(sd.DaysSinceLastSold),
			)
			records = append(records, rec)
		}
	}
	return records
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
