package catalog_test

import (
	"testing"

	"github.com/latticedb/graphcore/pkg/catalog"
	"github.com/latticedb/graphcore/pkg/gtype"
)

func TestCreateAndLookupNodeTable(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	tbl, err := c.CreateNodeTable("Person", []catalog.Column{
		{Name: "id", Type: gtype.Serial()},
		{Name: "name", Type: gtype.String()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tbl.Kind != catalog.KindNode {
		t.Fatalf("kind = %v, want node", tbl.Kind)
	}

	got, ok := c.Lookup("Person")
	if !ok || got.ID != tbl.ID {
		t.Fatalf("lookup failed or id mismatch")
	}

	if _, ok := tbl.ColumnIndex("name"); !ok {
		t.Fatalf("expected name column")
	}
}

func TestCreateDuplicateTableFails(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	if _, err := c.CreateNodeTable("Person", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateNodeTable("Person", nil); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}
}

func TestCreateRelTableReferencesEndpoints(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	person, _ := c.CreateNodeTable("Person", nil)
	company, _ := c.CreateNodeTable("Company", nil)

	rel, err := c.CreateRelTable("WorksAt", nil, person.ID, company.ID)
	if err != nil {
		t.Fatalf("create rel: %v", err)
	}
	if rel.FromTableID != person.ID || rel.ToTableID != company.ID {
		t.Fatalf("rel endpoints mismatch")
	}
}

func TestDropTableRemovesEntry(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	if _, err := c.CreateNodeTable("Person", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.DropTable("Person"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok := c.Lookup("Person"); ok {
		t.Fatalf("table should be gone after drop")
	}
	if err := c.DropTable("Person"); err == nil {
		t.Fatalf("dropping twice should fail")
	}
}
