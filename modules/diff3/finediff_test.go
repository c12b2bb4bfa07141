package diff3

import (
	"context"
	"testing"
)

func TestCalcDiffSingleCharEdit(t *testing.T) {
	p1 := []rune("hello world")
	p2 := []rune("hellO world")
	diffs, err := calcDiff(context.Background(), p1, p2, 2, 500)
	if err != nil {
		t.Fatalf("calcDiff: %v", err)
	}

	nonEqualRuns := 0
	for _, d := range diffs {
		if d.diff1 > 0 || d.diff2 > 0 {
			nonEqualRuns++
			if d.diff1 != 1 || d.diff2 != 1 {
				t.Fatalf("expected a single-character substitution, got diff1=%d diff2=%d", d.diff1, d.diff2)
			}
		}
	}
	if nonEqualRuns != 1 {
		t.Fatalf("expected exactly one non-equal run, got %d (%+v)", nonEqualRuns, diffs)
	}
}

func TestCalcDiffIdentical(t *testing.T) {
	p := []rune("identical text")
	diffs, err := calcDiff(context.Background(), p, p, 2, 500)
	if err != nil {
		t.Fatalf("calcDiff: %v", err)
	}
	for _, d := range diffs {
		if d.diff1 != 0 || d.diff2 != 0 {
			t.Fatalf("identical input produced a non-equal run: %+v", diffs)
		}
	}
}

func TestFineDiffSkipsWhitespaceOnlyPair(t *testing.T) {
	la := Ingest("   \n", false)
	lb := Ingest("\t\n", false)
	lc := Ingest("\n", false)
	rows := []*diff3Line{{lineA: 0, lineB: 0, lineC: 0}}
	if _, _, _, err := FineDiff(context.Background(), rows, la, lb, lc); err != nil {
		t.Fatalf("FineDiff: %v", err)
	}
	if !rows[0].aEqB || !rows[0].bEqC || !rows[0].aEqC {
		t.Fatalf("expected whitespace-only lines to compare equal on every pair, got %+v", rows[0])
	}
}
