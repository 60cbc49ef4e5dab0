package storage

import (
	"errors"
	"slices"
	"testing"

	"github.com/starford/recipebox/internal/apperr"
)

var testHeader = []string{"id", "userId", "item"}

func TestOpenTable_WritesSkeleton(t *testing.T) {
	s := tempDataDir(t)
	if _, err := OpenTable(s, "fridge.csv", testHeader); err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	data, err := s.Read("fridge.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "id,userId,item\n" {
		t.Errorf("skeleton = %q", data)
	}
}

func TestOpenTable_EmptyFileGetsSkeleton(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("fridge.csv", []byte("  \n"))
	tbl, err := OpenTable(s, "fridge.csv", testHeader)
	if err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	rows, err := tbl.Load()
	if err != nil || len(rows) != 0 {
		t.Fatalf("Load = %v, %v", rows, err)
	}
}

func TestTableRoundTrip(t *testing.T) {
	s := tempDataDir(t)
	tbl, err := OpenTable(s, "fridge.csv", testHeader)
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]string{
		{"1", "7", "milk"},
		{"2", "7", "salt, coarse"},
		{"3", "8", `say "cheese"`},
	}
	if err := tbl.Save(rows); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := tbl.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("len = %d, want %d", len(got), len(rows))
	}
	for i := range rows {
		if !slices.Equal(got[i], rows[i]) {
			t.Errorf("row %d = %q, want %q", i, got[i], rows[i])
		}
	}
}

func TestTableHeaderMismatch(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("saved_recipes.csv", []byte("id,userId,recipeId,savedAt,favourite\n"))
	tbl, err := OpenTable(s, "saved_recipes.csv", []string{"id", "userId", "recipeKey", "savedAt", "favourite"})
	if err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	_, err = tbl.Load()
	if !errors.Is(err, apperr.ErrStorageCorrupt) {
		t.Fatalf("err = %v, want ErrStorageCorrupt", err)
	}
}

func TestTableShortRecord(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("fridge.csv", []byte("id,userId,item\n1,7\n"))
	tbl, _ := OpenTable(s, "fridge.csv", testHeader)
	if _, err := tbl.Load(); !errors.Is(err, apperr.ErrStorageCorrupt) {
		t.Fatalf("err = %v, want ErrStorageCorrupt", err)
	}
}
