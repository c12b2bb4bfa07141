package diff3

import "github.com/mergetools/diff3/modules/diferenco"

// Trim repairs triangular inconsistencies left by the construction
// passes: rows where one column is empty purely because construction
// inserted it a few rows too early. It walks the row list once with a
// look-ahead cursor i3 and three catch-up cursors (one per column),
// migrating a line up into an earlier empty slot when doing so doesn't
// cross a manual anchor boundary, ported from calcDiff3LineListTrim.
//
// This replaces kdiff3's Diff3LineList (a std::list spliced in place)
// with a plain slice: every migration here moves a line value between
// two existing rows rather than inserting/removing nodes, so
// []*diff3Line with integer cursors is enough - the final empty row
// removal is the one place row count changes, and it's a simple filter
// pass.
func Trim(rows []*diff3Line, la, lb, lc *LineArray, opts diferenco.EqualityOptions, anchors []ManualAnchor) []*diff3Line {
	i3A, i3B, i3C := 0, 0, 0
	lineA, lineB, lineC := 0, 0, 0

	for i3, line := 0, 0; i3 < len(rows); i3, line = i3+1, line+1 {
		row := rows[i3]

		if line > lineA && row.lineA != none && rows[i3A].lineB != none && rows[i3A].bEqC &&
			equalLine(opts, la, row.lineA, lb, rows[i3A].lineB) &&
			isValidMove(anchors, row.lineA, rows[i3A].lineB, 1, 2) &&
			isValidMove(anchors, row.lineA, rows[i3A].lineC, 1, 3) {
			rows[i3A].lineA = row.lineA
			rows[i3A].aEqB = true
			rows[i3A].aEqC = true
			row.lineA = none
			row.aEqB = false
			row.aEqC = false
			i3A++
			lineA++
		}

		if line > lineB && row.lineB != none && rows[i3B].lineA != none && rows[i3B].aEqC &&
			equalLine(opts, lb, row.lineB, la, rows[i3B].lineA) &&
			isValidMove(anchors, row.lineB, rows[i3B].lineA, 2, 1) &&
			isValidMove(anchors, row.lineB, rows[i3B].lineC, 2, 3) {
			rows[i3B].lineB = row.lineB
			rows[i3B].aEqB = true
			rows[i3B].bEqC = true
			row.lineB = none
			row.aEqB = false
			row.bEqC = false
			i3B++
			lineB++
		}

		if line > lineC && row.lineC != none && rows[i3C].lineA != none && rows[i3C].aEqB &&
			equalLine(opts, lc, row.lineC, la, rows[i3C].lineA) &&
			isValidMove(anchors, row.lineC, rows[i3C].lineA, 3, 1) &&
			isValidMove(anchors, row.lineC, rows[i3C].lineB, 3, 2) {
			rows[i3C].lineC = row.lineC
			rows[i3C].aEqC = true
			rows[i3C].bEqC = true
			row.lineC = none
			row.aEqC = false
			row.bEqC = false
			i3C++
			lineC++
		}

		if line > lineA && row.lineA != none && !row.aEqB && !row.aEqC &&
			isValidMove(anchors, row.lineA, rows[i3A].lineB, 1, 2) &&
			isValidMove(anchors, row.lineA, rows[i3A].lineC, 1, 3) {
			rows[i3A].lineA = row.lineA
			row.lineA = none
			i3A++
			lineA++
		}

		if line > lineB && row.lineB != none && !row.aEqB && !row.bEqC &&
			isValidMove(anchors, row.lineB, rows[i3B].lineA, 2, 1) &&
			isValidMove(anchors, row.lineB, rows[i3B].lineC, 2, 3) {
			rows[i3B].lineB = row.lineB
			row.lineB = none
			i3B++
			lineB++
		}

		if line > lineC && row.lineC != none && !row.aEqC && !row.bEqC &&
			isValidMove(anchors, row.lineC, rows[i3C].lineA, 3, 1) &&
			isValidMove(anchors, row.lineC, rows[i3C].lineB, 3, 2) {
			rows[i3C].lineC = row.lineC
			row.lineC = none
			i3C++
			lineC++
		}

		switch {
		case line > lineA && line > lineB && row.lineA != none && row.aEqB && !row.aEqC:
			i, l := i3A, lineA
			if lineB > lineA {
				i, l = i3B, lineB
			}
			if isValidMove(anchors, rows[i].lineC, row.lineA, 3, 1) &&
				isValidMove(anchors, rows[i].lineC, row.lineB, 3, 2) {
				rows[i].lineA = row.lineA
				rows[i].lineB = row.lineB
				rows[i].aEqB = true
				row.lineA = none
				row.lineB = none
				row.aEqB = false
				i3A, i3B = i+1, i+1
				lineA, lineB = l+1, l+1
			}
		case line > lineA && line > lineC && row.lineA != none && row.aEqC && !row.aEqB:
			i, l := i3A, lineA
			if lineC > lineA {
				i, l = i3C, lineC
			}
			if isValidMove(anchors, rows[i].lineB, row.lineA, 2, 1) &&
				isValidMove(anchors, rows[i].lineB, row.lineC, 2, 3) {
				rows[i].lineA = row.lineA
				rows[i].lineC = row.lineC
				rows[i].aEqC = true
				row.lineA = none
				row.lineC = none
				row.aEqC = false
				i3A, i3C = i+1, i+1
				lineA, lineC = l+1, l+1
			}
		case line > lineB && line > lineC && row.lineB != none && row.bEqC && !row.aEqC:
			i, l := i3B, lineB
			if lineC > lineB {
				i, l = i3C, lineC
			}
			if isValidMove(anchors, rows[i].lineA, row.lineB, 1, 2) &&
				isValidMove(anchors, rows[i].lineA, row.lineC, 1, 3) {
				rows[i].lineB = row.lineB
				rows[i].lineC = row.lineC
				rows[i].bEqC = true
				row.lineB = none
				row.lineC = none
				row.bEqC = false
				i3B, i3C = i+1, i+1
				lineB, lineC = l+1, l+1
			}
		}

		if row.lineA != none {
			lineA = line + 1
			i3A = i3 + 1
		}
		if row.lineB != none {
			lineB = line + 1
			i3B = i3 + 1
		}
		if row.lineC != none {
			lineC = line + 1
			i3C = i3 + 1
		}
	}

	out := rows[:0]
	for _, r := range rows {
		if !r.empty() {
			out = append(out, r)
		}
	}
	return out
}

// equalLine compares two raw lines under opts's equivalence rules (not
// byte equality), the "isWhite=false" overload of kdiff3's ::equal used
// throughout trim: a lift that only the caller's current equality
// flags, not a strict byte match, would justify must apply here too, or
// trim misses matches a non-default EqualityOptions otherwise allows.
func equalLine(opts diferenco.EqualityOptions, laArr *LineArray, ia int, lbArr *LineArray, ib int) bool {
	if ia < 0 || ia >= len(laArr.Lines) || ib < 0 || ib >= len(lbArr.Lines) {
		return false
	}
	a, b := laArr.Lines[ia].Text, lbArr.Lines[ib].Text
	if a == b {
		return true
	}
	return opts.Normalize(a) == opts.Normalize(b)
}
