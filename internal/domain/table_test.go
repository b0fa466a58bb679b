package domain

import (
	"reflect"
	"testing"
)

func TestTableColumnOrderIsFirstRegistration(t *testing.T) {
	table := NewTable("id", "title")
	if added := table.AddColumn("price"); !added {
		t.Fatalf("expected price to be a new column")
	}
	if added := table.AddColumn("id"); added {
		t.Fatalf("expected duplicate registration to report false")
	}

	want := []string{"id", "title", "price"}
	if got := table.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected column order: got %v want %v", got, want)
	}
}

func TestTableValueTreatsNilAsMissing(t *testing.T) {
	table := NewTable("id", "brand")
	table.Append(Row{"id": int64(1), "brand": nil})

	if _, ok := table.Value(0, "brand"); ok {
		t.Fatalf("nil cell should be reported missing")
	}
	if _, ok := table.Value(0, "category"); ok {
		t.Fatalf("absent cell should be reported missing")
	}
	v, ok := table.Value(0, "id")
	if !ok || v.(int64) != 1 {
		t.Fatalf("expected id 1, got %v (present=%v)", v, ok)
	}
}

func TestTableCloneIsDeep(t *testing.T) {
	table := NewTable("id")
	table.Append(Row{"id": int64(1)})

	clone := table.Clone()
	clone.Row(0)["id"] = int64(99)
	clone.AddColumn("extra")

	if v, _ := table.Value(0, "id"); v.(int64) != 1 {
		t.Fatalf("clone mutation leaked into original: id=%v", v)
	}
	if table.HasColumn("extra") {
		t.Fatalf("clone column registration leaked into original")
	}
}

func TestTableColumnReturnsNilForMissingCells(t *testing.T) {
	table := NewTable("id", "price")
	table.Append(Row{"id": int64(1), "price": 9.99})
	table.Append(Row{"id": int64(2)})

	values := table.Column("price")
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0].(float64) != 9.99 || values[1] != nil {
		t.Fatalf("unexpected column values: %v", values)
	}
}
