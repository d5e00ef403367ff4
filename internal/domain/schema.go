package domain

// Tenant stores name the same logical columns differently: the grouping
// column is "Category" on some schemas and "Product_Type" on others, and not
// every store carries a size column. A TenantSchema pins the native names and
// capability flags once at resolution time so nothing downstream probes
// columns per access.

type ItemShape struct {
	Table      string
	ID         string
	Name       string
	Type       string
	LaunchDate string
	Stock      string
	Price      string
	Size       string // empty when HasSize is false
	Group      string // native name of the grouping column

	HasCategory    bool
	HasProductType bool
	HasSize        bool
}

type SaleShape struct {
	Table    string
	ItemID   string
	Date     string
	Quantity string
}

type ViewShape struct {
	Table       string
	ItemID      string
	Viewed      string
	AddedToCart string
}

type TenantSchema struct {
	Tenant string
	Items  ItemShape
	Sales  SaleShape
	Views  ViewShape
}
