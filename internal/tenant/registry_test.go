package tenant

import (
	"errors"
	"testing"

	"github.com/kirthika/stocklens/internal/domain"
)

func TestResolveKnownTenants(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"zing", "prathiksham", "beelittle", "adoreaboo"} {
		s, err := r.Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", id, err)
		}
		if s.Tenant != id {
			t.Errorf("Resolve(%s).Tenant = %q", id, s.Tenant)
		}
		if s.Items.HasCategory == s.Items.HasProductType && !s.Items.HasCategory {
			t.Errorf("%s: no grouping column resolved", id)
		}
		if s.Items.Group == "" {
			t.Errorf("%s: empty grouping column", id)
		}
	}
}

func TestResolveGroupingColumn(t *testing.T) {
	r := NewRegistry()

	bee, _ := r.Resolve("beelittle")
	if bee.Items.Group != "Product_Type" {
		t.Errorf("beelittle group = %q, want Product_Type", bee.Items.Group)
	}
	zing, _ := r.Resolve("zing")
	if zing.Items.Group != "Category" {
		t.Errorf("zing group = %q, want Category", zing.Items.Group)
	}
	// adoreaboo carries both; Category is preferred
	adb, _ := r.Resolve("adoreaboo")
	if adb.Items.Group != "Category" {
		t.Errorf("adoreaboo group = %q, want Category", adb.Items.Group)
	}
	if adb.Items.HasSize || adb.Items.Size != "" {
		t.Errorf("adoreaboo should have no size column")
	}
}

func TestResolveUnknownTenant(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("ghost")
	if !errors.Is(err, domain.ErrUnknownTenant) {
		t.Fatalf("err = %v, want ErrUnknownTenant", err)
	}
}
