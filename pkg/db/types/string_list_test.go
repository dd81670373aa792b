package dbtypes

import "testing"

func TestStringListScanAndValue(t *testing.T) {
	var list StringList
	if err := list.Scan([]byte(`["red","sparkling"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(list) != 2 || list[0] != "red" || list[1] != "sparkling" {
		t.Fatalf("unexpected list %v", list)
	}

	val, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if val != `["red","sparkling"]` {
		t.Fatalf("unexpected value %v", val)
	}
}

func TestStringListEmptyForms(t *testing.T) {
	for _, src := range []any{nil, "", "null", []byte("  ")} {
		var list StringList
		if err := list.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
		if list == nil || len(list) != 0 {
			t.Fatalf("expected empty list for %v, got %v", src, list)
		}
	}

	val, _ := StringList(nil).Value()
	if val != "[]" {
		t.Fatalf("expected [] for empty list, got %v", val)
	}
}

func TestStringListRejectsGarbage(t *testing.T) {
	var list StringList
	if err := list.Scan(42); err == nil {
		t.Fatal("expected unsupported type error")
	}
	if err := list.Scan("{red}"); err == nil {
		t.Fatal("expected parse error")
	}
}
