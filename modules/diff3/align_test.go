package diff3

import (
	"context"
	"testing"

	"github.com/mergetools/diff3/modules/diferenco"
)

func runAlign(t *testing.T, textA, textB, textC string) []MergeRow {
	t.Helper()
	la := Ingest(textA, false)
	lb := Ingest(textB, false)
	lc := Ingest(textC, false)

	rows, err := Align(context.Background(), la, lb, lc, diferenco.EqualityOptions{}, nil)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	rows = Trim(rows, la, lb, lc, diferenco.EqualityOptions{}, nil)
	if _, _, _, err := FineDiff(context.Background(), rows, la, lb, lc); err != nil {
		t.Fatalf("FineDiff: %v", err)
	}
	return Resolve(rows)
}

func TestAlignIdenticalThreeWay(t *testing.T) {
	rows := runAlign(t, "x\ny\nz\n", "x\ny\nz\n", "x\ny\nz\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.LineA == none || r.LineB == none || r.LineC == none {
			t.Fatalf("row %d: expected all three columns present, got %+v", i, r)
		}
		if r.Class != NoChange || r.Default != ChoiceA {
			t.Fatalf("row %d: expected NoChange/A, got %v/%v", i, r.Class, r.Default)
		}
	}
}

func TestAlignPureInsertionOnC(t *testing.T) {
	rows := runAlign(t, "x\ny\n", "x\ny\n", "x\nNEW\ny\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].LineA != 0 || rows[0].LineB != 0 || rows[0].LineC != 0 {
		t.Fatalf("row 0: expected (0,0,0), got %+v", rows[0])
	}
	mid := rows[1]
	if mid.LineA != none || mid.LineB != none || mid.LineC != 1 {
		t.Fatalf("row 1: expected (NONE,NONE,1), got %+v", mid)
	}
	if mid.Class != NewFromC || mid.Default != ChoiceC {
		t.Fatalf("row 1: expected NewFromC/C, got %v/%v", mid.Class, mid.Default)
	}
	last := rows[2]
	if last.LineA != 1 || last.LineB != 1 || last.LineC != 2 {
		t.Fatalf("row 2: expected (1,1,2), got %+v", last)
	}
}

func TestAlignCleanModificationOnBOnly(t *testing.T) {
	rows := runAlign(t, "x\ny\nz\n", "x\nY\nz\n", "x\ny\nz\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Class != NoChange || rows[2].Class != NoChange {
		t.Fatalf("expected rows 0 and 2 NoChange, got %v / %v", rows[0].Class, rows[2].Class)
	}
	if rows[1].Class != BChanged || rows[1].Default != ChoiceB {
		t.Fatalf("row 1: expected B_Changed/B, got %v/%v", rows[1].Class, rows[1].Default)
	}
}

func TestAlignTrueThreeWayConflict(t *testing.T) {
	rows := runAlign(t, "x\ny\nz\n", "x\nY1\nz\n", "x\nY2\nz\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Class != Conflict || rows[1].Default != ChoiceUnsolved {
		t.Fatalf("row 1: expected Conflict/UNSOLVED, got %v/%v", rows[1].Class, rows[1].Default)
	}
}

func TestAlignDeleteVsModify(t *testing.T) {
	// A deletes the middle line; B modifies it. Neither matches the
	// other nor the (absent) base reading, so this must surface as a
	// conflict rather than silently picking a side.
	rows := runAlign(t, "x\nz\n", "x\nY\nz\n", "x\ny\nz\n")
	found := false
	for _, r := range rows {
		if r.LineA == none && r.Class == Conflict {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Conflict row where A is absent, got %+v", rows)
	}
}

func TestAlignWhitespaceOnlyConflict(t *testing.T) {
	opts := diferenco.EqualityOptions{IgnoreWhitespace: true}
	la := Ingest("x\ny\nz\n", false)
	lb := Ingest("x\n  y\nz\n", false)
	lc := Ingest("x\ny \nz\n", false)

	rows, err := Align(context.Background(), la, lb, lc, opts, nil)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	rows = Trim(rows, la, lb, lc, opts, nil)
	if _, _, _, err := FineDiff(context.Background(), rows, la, lb, lc); err != nil {
		t.Fatalf("FineDiff: %v", err)
	}
	merged := Resolve(rows)
	if len(merged) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(merged))
	}
}

func TestResolveIdempotent(t *testing.T) {
	rows1 := runAlign(t, "x\ny\nz\n", "x\nY1\nz\n", "x\nY2\nz\n")
	la := Ingest("x\ny\nz\n", false)
	lb := Ingest("x\nY1\nz\n", false)
	lc := Ingest("x\nY2\nz\n", false)
	aligned, err := Align(context.Background(), la, lb, lc, diferenco.EqualityOptions{}, nil)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	aligned = Trim(aligned, la, lb, lc, diferenco.EqualityOptions{}, nil)
	if _, _, _, err := FineDiff(context.Background(), aligned, la, lb, lc); err != nil {
		t.Fatalf("FineDiff: %v", err)
	}
	rows2 := Resolve(aligned)

	if len(rows1) != len(rows2) {
		t.Fatalf("resolve not idempotent: length mismatch %d vs %d", len(rows1), len(rows2))
	}
	for i := range rows1 {
		if rows1[i].Class != rows2[i].Class || rows1[i].Default != rows2[i].Default {
			t.Fatalf("resolve not idempotent at row %d: %+v vs %+v", i, rows1[i], rows2[i])
		}
	}
}
