package diff3

import (
	"context"

	"github.com/mergetools/diff3/modules/diferenco"
)

// runeDiff is one run in a character-level edit script: nofEquals
// matching runes followed by diff1 runes consumed from the left side
// and diff2 runes consumed from the right side, mirroring kdiff3's Diff.
type runeDiff struct {
	nofEquals, diff1, diff2 int
}

// calcDiff is kdiff3's own greedy best-match character differ (not
// Myers): at each position it searches a bounded window for the
// nearest plausible resync point, preferring matches close in both
// runs or confirmed by the following character, then rolls back over
// any trailing non-strict match before committing. match=2 in fineDiff
// callers enables the proximity/context relaxation; match=1 (unused
// here) would require only exact equality. ctx is polled once per outer
// iteration, matching gnumyers.go's diag loop, since a pathological line
// pair can otherwise run the nested search many times before returning.
// Ported from calcDiff in diff.cpp.
func calcDiff(ctx context.Context, p1, p2 []rune, match, maxSearchRange int) ([]runeDiff, error) {
	var diffs []runeDiff
	size1, size2 := len(p1), len(p2)
	i1cursor, i2cursor := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return diffs, err
		}
		nofEquals := 0
		for i1cursor != size1 && i2cursor != size2 && p1[i1cursor] == p2[i2cursor] {
			i1cursor++
			i2cursor++
			nofEquals++
		}

		bestValid := false
		bestI1, bestI2 := 0, 0
		var i1 int
		for i1 = 0; ; i1++ {
			if i1cursor+i1 == size1 || (bestValid && i1 >= bestI1+bestI2) {
				break
			}
			for i2 := 0; i2 < maxSearchRange; i2++ {
				if i2cursor+i2 == size2 || (bestValid && i1+i2 >= bestI1+bestI2) {
					break
				}
				c1 := p1[i1cursor+i1]
				c2 := p2[i2cursor+i2]
				if c2 == c1 &&
					(match == 1 || absInt(i1-i2) < 3 ||
						(i2cursor+i2+1 == size2 && i1cursor+i1+1 == size1) ||
						(i2cursor+i2+1 != size2 && i1cursor+i1+1 != size1 && p2[i2cursor+i2+1] == p1[i1cursor+i1+1])) {
					if i1+i2 < bestI1+bestI2 || !bestValid {
						bestI1, bestI2 = i1, i2
						bestValid = true
					}
					break
				}
			}
		}

		for bestI1 >= 1 && bestI2 >= 1 && p1[i1cursor+bestI1-1] == p2[i2cursor+bestI2-1] {
			bestI1--
			bestI2--
		}

		endReached := false
		var d runeDiff
		if bestValid {
			d = runeDiff{nofEquals: nofEquals, diff1: bestI1, diff2: bestI2}
			diffs = append(diffs, d)
			i1cursor += bestI1
			i2cursor += bestI2
		} else {
			d = runeDiff{nofEquals: nofEquals, diff1: size1 - i1cursor, diff2: size2 - i2cursor}
			diffs = append(diffs, d)
			endReached = true
		}

		// Rescan backward from the match just committed: the greedy
		// forward search can land on a match while leaving a run of
		// trailing equal runes stranded in the preceding diff run.
		// Pull them back out of that run and merge into this one.
		nofUnmatched := 0
		pu1 := i1cursor - 1
		pu2 := i2cursor - 1
		for pu1 >= 0 && pu2 >= 0 && p1[pu1] == p2[pu2] {
			nofUnmatched++
			pu1--
			pu2--
		}

		if nofUnmatched > 0 {
			back := diffs[len(diffs)-1]
			origBack := back
			diffs = diffs[:len(diffs)-1]

			for nofUnmatched > 0 {
				if back.diff1 > 0 && back.diff2 > 0 {
					back.diff1--
					back.diff2--
					nofUnmatched--
				} else if back.nofEquals > 0 {
					back.nofEquals--
					nofUnmatched--
				}

				if back.nofEquals == 0 && (back.diff1 == 0 || back.diff2 == 0) && nofUnmatched > 0 {
					if len(diffs) == 0 {
						break
					}
					prev := diffs[len(diffs)-1]
					back.nofEquals += prev.nofEquals
					back.diff1 += prev.diff1
					back.diff2 += prev.diff2
					diffs = diffs[:len(diffs)-1]
					endReached = false
				}
			}

			if endReached {
				diffs = append(diffs, origBack)
			} else {
				i1cursor = pu1 + 1 + nofUnmatched
				i2cursor = pu2 + 1 + nofUnmatched
				diffs = append(diffs, back)
			}
		}

		if endReached {
			break
		}
	}

	return diffs, nil
}

// fineDiffColumn runs the character differ over one column pair
// (selector 1=AB, 2=BC, 3=CA) of every aligned row, setting the
// corresponding equality flag when both sides are whitespace/comment
// only and skipping the fine diff there entirely, and collapsing
// fine-grained equal runs shorter than 4 runes (unless they're the
// first "useful" run) so single-character edits don't fragment an
// otherwise-equal line into noise. Ported from fineDiff/calcWhiteDiff3Lines.
func fineDiffColumn(ctx context.Context, rows []*diff3Line, selector int, la, lb, lc *LineArray) (bool, error) {
	const maxSearchLength = 500
	textTotalEqual := true

	colText := func(arr *LineArray, idx int) (string, bool) {
		if idx < 0 {
			return "", false
		}
		ln := arr.Lines[idx]
		return ln.Text, ln.Skippable
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return textTotalEqual, err
		}
		var k1, k2 int
		var arr1, arr2 *LineArray
		switch selector {
		case 1:
			k1, k2, arr1, arr2 = row.lineA, row.lineB, la, lb
		case 2:
			k1, k2, arr1, arr2 = row.lineB, row.lineC, lb, lc
		case 3:
			k1, k2, arr1, arr2 = row.lineC, row.lineA, lc, la
		}

		if (k1 == none) != (k2 == none) {
			textTotalEqual = false
		}
		if k1 == none || k2 == none {
			continue
		}

		t1, skip1 := colText(arr1, k1)
		t2, skip2 := colText(arr2, k2)

		if t1 != t2 {
			textTotalEqual = false
		}
		if t1 != t2 && !(skip1 && skip2) {
			r1 := []rune(t1)
			r2 := []rune(t2)
			diffs, err := calcDiff(ctx, r1, r2, 2, maxSearchLength)
			if err != nil {
				return textTotalEqual, err
			}

			usefulFineDiff := false
			for _, d := range diffs {
				if d.nofEquals >= 4 {
					usefulFineDiff = true
					break
				}
			}
			for i := range diffs {
				d := &diffs[i]
				if d.nofEquals < 4 && (d.diff1 > 0 || d.diff2 > 0) && !(usefulFineDiff && i == 0) {
					d.diff1 += d.nofEquals
					d.diff2 += d.nofEquals
					d.nofEquals = 0
				}
			}

			changes := runeDiffsToChanges(diffs)
			switch selector {
			case 1:
				row.fineAB = changes
			case 2:
				row.fineBC = changes
			case 3:
				row.fineCA = changes
			}
		}

		if skip1 && skip2 {
			switch selector {
			case 1:
				row.aEqB = true
			case 2:
				row.bEqC = true
			case 3:
				row.aEqC = true
			}
		}
	}

	return textTotalEqual, nil
}

func runeDiffsToChanges(diffs []runeDiff) []diferenco.Change {
	changes := make([]diferenco.Change, 0, len(diffs))
	var p1, p2 int
	for _, d := range diffs {
		p1 += d.nofEquals
		p2 += d.nofEquals
		if d.diff1 > 0 || d.diff2 > 0 {
			changes = append(changes, diferenco.Change{P1: p1, P2: p2, Del: d.diff1, Ins: d.diff2})
			p1 += d.diff1
			p2 += d.diff2
		}
	}
	return changes
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FineDiff runs the character-level differ over all three column pairs
// (AB, BC, CA) and marks the whiteLine* flags used by the merge
// resolver to treat whitespace/comment-only edits specially. Returns
// true if the two arrays being fine-diffed turned out completely
// textually equal (used by callers that short-circuit when selector's
// two columns never actually diverge). ctx is checked between columns
// and inside each column's per-row loop, so a cancelled merge of large
// files returns promptly instead of running all three passes to completion.
func FineDiff(ctx context.Context, rows []*diff3Line, la, lb, lc *LineArray) (abEqual, bcEqual, caEqual bool, err error) {
	abEqual, err = fineDiffColumn(ctx, rows, 1, la, lb, lc)
	if err != nil {
		return abEqual, bcEqual, caEqual, err
	}
	bcEqual, err = fineDiffColumn(ctx, rows, 2, la, lb, lc)
	if err != nil {
		return abEqual, bcEqual, caEqual, err
	}
	caEqual, err = fineDiffColumn(ctx, rows, 3, la, lb, lc)
	if err != nil {
		return abEqual, bcEqual, caEqual, err
	}
	for _, row := range rows {
		row.whiteA = row.lineA == none || la.Lines[row.lineA].Skippable
		row.whiteB = row.lineB == none || lb.Lines[row.lineB].Skippable
		row.whiteC = row.lineC == none || lc.Lines[row.lineC].Skippable
	}
	return abEqual, bcEqual, caEqual, nil
}
