package tenant

import (
	"fmt"

	"github.com/kirthika/stocklens/internal/domain"
)

// Registry maps tenant ids onto their store schemas. Lookup only, no I/O.
type Registry struct {
	schemas map[string]domain.TenantSchema
}

func NewRegistry() *Registry {
	r := &Registry{schemas: map[string]domain.TenantSchema{}}
	r.register("zing", tenantOpts{hasCategory: true, hasSize: true})
	r.register("prathiksham", tenantOpts{hasCategory: true, hasSize: true})
	r.register("beelittle", tenantOpts{hasProductType: true, hasSize: true})
	// adoreaboo exposes both Category and __Product_Type; Category wins. It
	// has no per-variant size column.
	r.register("adoreaboo", tenantOpts{hasCategory: true, hasProductType: true})
	return r
}

type tenantOpts struct {
	hasCategory    bool
	hasProductType bool
	hasSize        bool
}

func (r *Registry) register(id string, opts tenantOpts) {
	items := domain.ItemShape{
		Table:          "items",
		ID:             "Item_Id",
		Name:           "Item_Name",
		Type:           "Item_Type",
		LaunchDate:     "__Launch_Date",
		Stock:          "Current_Stock",
		Price:          "Sale_Price",
		HasCategory:    opts.hasCategory,
		HasProductType: opts.hasProductType,
		HasSize:        opts.hasSize,
	}
	if opts.hasSize {
		items.Size = "Size"
	}
	// Exactly one grouping column is guaranteed; prefer Category when a
	// schema happens to carry both.
	if opts.hasCategory {
		items.Group = "Category"
	} else {
		items.Group = "Product_Type"
	}
	r.schemas[id] = domain.TenantSchema{
		Tenant: id,
		Items:  items,
		Sales: domain.SaleShape{
			Table:    "sale",
			ItemID:   "Item_Id",
			Date:     "Date",
			Quantity: "Quantity",
		},
		Views: domain.ViewShape{
			Table:       "viewsatc",
			ItemID:      "Item_Id",
			Viewed:      "Items_Viewed",
			AddedToCart: "Items_Addedtocart",
		},
	}
}

func (r *Registry) Resolve(tenantID string) (domain.TenantSchema, error) {
	s, ok := r.schemas[tenantID]
	if !ok {
		return domain.TenantSchema{}, fmt.Errorf("%w: %q", domain.ErrUnknownTenant, tenantID)
	}
	return s, nil
}

// Tenants lists the registered ids, for diagnostics.
func (r *Registry) Tenants() []string {
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	return ids
}
