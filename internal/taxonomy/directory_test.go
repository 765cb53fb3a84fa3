package taxonomy

import (
	"strings"
	"testing"

	"kopilka/internal/core"
)

func TestDefaultDirectory(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	expenseRoots := d.RootsByKind(core.KindExpense)
	if len(expenseRoots) == 0 {
		t.Fatal("no expense roots")
	}
	for _, c := range expenseRoots {
		if !c.IsRoot() || c.Kind != core.KindExpense {
			t.Errorf("root listing returned non-root or wrong kind: %+v", c)
		}
	}

	picks := d.QuickPicks(core.KindIncome)
	if len(picks) == 0 {
		t.Fatal("no income quick picks")
	}
	for _, c := range picks {
		if d.HasChildren(c.ID) {
			t.Errorf("quick pick %d has children", c.ID)
		}
	}
	if len(d.QuickPicks(core.KindExpense)) != 0 {
		t.Error("expense kind should have no quick picks in the default definition")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "duplicate id",
			json: `[{"id":1,"name":"a","kind":"expense"},{"id":1,"name":"b","kind":"expense"}]`,
			want: "duplicate id",
		},
		{
			name: "unknown kind",
			json: `[{"id":1,"name":"a","kind":"loan"}]`,
			want: "unknown transaction kind",
		},
		{
			name: "missing parent",
			json: `[{"id":2,"name":"b","kind":"expense","parent_id":1}]`,
			want: "parent 1 does not exist",
		},
		{
			name: "kind mismatch with parent",
			json: `[{"id":1,"name":"a","kind":"expense"},{"id":2,"name":"b","kind":"income","parent_id":1}]`,
			want: "differs from parent kind",
		},
		{
			name: "three levels deep",
			json: `[{"id":1,"name":"a","kind":"expense"},{"id":2,"name":"b","kind":"expense","parent_id":1},{"id":3,"name":"c","kind":"expense","parent_id":2}]`,
			want: "not a root",
		},
		{
			name: "quick pick with children",
			json: `[{"id":1,"name":"a","kind":"income","quick":true},{"id":2,"name":"b","kind":"income","parent_id":1}]`,
			want: "quick-pick cannot have subcategories",
		},
		{
			name: "empty definition",
			json: `[]`,
			want: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	d, err := Load([]byte(`[
		{"id":1,"name":"Транспорт","kind":"expense"},
		{"id":11,"name":"Бензин","kind":"expense","parent_id":1},
		{"id":12,"name":"Ремонт","kind":"expense","parent_id":1},
		{"id":2,"name":"Продукты","kind":"expense"}
	]`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c, ok := d.ByID(11); !ok || c.Name != "Бензин" || c.ParentID != 1 {
		t.Errorf("ByID(11) = %+v, %v", c, ok)
	}
	if _, ok := d.ByID(99); ok {
		t.Error("ByID(99) should miss")
	}

	kids := d.ChildrenOf(1)
	if len(kids) != 2 || kids[0].ID != 11 || kids[1].ID != 12 {
		t.Errorf("ChildrenOf(1) = %+v", kids)
	}
	if d.HasChildren(2) {
		t.Error("category 2 should be a leaf")
	}

	if got := d.Name(2); got != "Продукты" {
		t.Errorf("Name(2) = %q", got)
	}
	if got := d.Name(404); got != "#404" {
		t.Errorf("Name(404) = %q", got)
	}
}
