package diff3

import (
	"container/list"
	"context"

	"github.com/mergetools/diff3/modules/diferenco"
)

const none = -1

// diff3Line is one aligned row. Field names mirror kdiff3's Diff3Line
// (src-QT4/diff.h / diff.cpp) in camelCase, matching Go naming
// conventions rather than the C++ original's snake_case.
type diff3Line struct {
	lineA, lineB, lineC int
	aEqB, aEqC, bEqC    bool
	whiteA, whiteB, whiteC bool
	fineAB, fineBC, fineCA []diferenco.Change
}

func newDiff3Line() *diff3Line {
	return &diff3Line{lineA: none, lineB: none, lineC: none}
}

func (d *diff3Line) empty() bool {
	return d.lineA == none && d.lineB == none && d.lineC == none
}

// ManualAnchor pins ranges of A/B/C that must stay co-aligned; a -1,-1
// pair exempts that column.
type ManualAnchor struct {
	A, B, C [2]int
}

func noRange(r [2]int) bool { return r[0] < 0 || r[1] < 0 }

// isValidMove rejects a migration that would move a line across a
// manual anchor boundary, ported from kdiff3's isValidMove.
func isValidMove(anchors []ManualAnchor, line1, line2, col1, col2 int) bool {
	if line1 < 0 || line2 < 0 {
		return true
	}
	for _, an := range anchors {
		r1 := colRange(an, col1)
		r2 := colRange(an, col2)
		if noRange(r1) || noRange(r2) {
			continue
		}
		in1 := line1 >= r1[0] && line1 <= r1[1]
		in2 := line2 >= r2[0] && line2 <= r2[1]
		if in1 != in2 {
			return false
		}
	}
	return true
}

func colRange(a ManualAnchor, col int) [2]int {
	switch col {
	case 1:
		return a.A
	case 2:
		return a.B
	default:
		return a.C
	}
}

// runUsingAB seeds the Diff3LineList from the A↔B pairwise diff (pass 1
// of construction), grounded on calcDiff3LineListUsingAB.
func runUsingAB(changes []diferenco.Change, lenA int) *list.List {
	l := list.New()
	lineA, lineB := 0, 0
	idx := 0
	for idx <= len(changes) {
		var equalsUntil, delN, insN int
		if idx < len(changes) {
			ch := changes[idx]
			equalsUntil = ch.P1 // lines [lineA, ch.P1) are equal
			delN = ch.Del
			insN = ch.Ins
		} else {
			equalsUntil = lenA
			delN, insN = 0, 0
		}
		for lineA < equalsUntil {
			d := newDiff3Line()
			d.lineA, d.lineB = lineA, lineB
			d.aEqB = true
			l.PushBack(d)
			lineA++
			lineB++
		}
		for delN > 0 && insN > 0 {
			d := newDiff3Line()
			d.lineA, d.lineB = lineA, lineB
			l.PushBack(d)
			lineA++
			lineB++
			delN--
			insN--
		}
		for delN > 0 {
			d := newDiff3Line()
			d.lineA = lineA
			l.PushBack(d)
			lineA++
			delN--
		}
		for insN > 0 {
			d := newDiff3Line()
			d.lineB = lineB
			l.PushBack(d)
			lineB++
			insN--
		}
		idx++
	}
	return l
}

// runUsingAC weaves C into the list via the A↔C pairwise diff (pass 2),
// grounded on calcDiff3LineListUsingAC.
func runUsingAC(l *list.List, changes []diferenco.Change, lenA int) {
	i3 := l.Front()
	lineA, lineC := 0, 0
	idx := 0
	for idx <= len(changes) {
		var equalsUntil, delN, insN int
		if idx < len(changes) {
			ch := changes[idx]
			equalsUntil = ch.P1
			delN = ch.Del
			insN = ch.Ins
		} else {
			equalsUntil = lenA
			delN, insN = 0, 0
		}
		for lineA < equalsUntil {
			for i3 != nil && i3.Value.(*diff3Line).lineA != lineA {
				i3 = i3.Next()
			}
			d := i3.Value.(*diff3Line)
			d.lineC = lineC
			d.aEqC = true
			d.bEqC = d.aEqB
			lineA++
			lineC++
			i3 = i3.Next()
		}
		for delN > 0 && insN > 0 {
			d := newDiff3Line()
			d.lineC = lineC
			l.InsertBefore(d, i3)
			lineA++
			lineC++
			delN--
			insN--
		}
		for delN > 0 {
			lineA++
			delN--
		}
		for insN > 0 {
			d := newDiff3Line()
			d.lineC = lineC
			l.InsertBefore(d, i3)
			lineC++
			insN--
		}
		idx++
	}
}

// withinTolerance implements the d·d+4 gate on how many
// disturbing lines a BC migration may cross. The reference
// implementation ships this check compiled out (commented `//&&`);
// unconditionalDisturbingLineMigration toggles between the documented
// gated behavior (default here) and the reference's actual
// always-migrate behavior.
const unconditionalDisturbingLineMigration = false

func withinTolerance(nofDisturbing, d int) bool {
	if unconditionalDisturbingLineMigration {
		return true
	}
	return nofDisturbing < d*d+4
}

// runUsingBC refines the list with the B↔C pairwise diff (pass 3),
// grounded on calcDiff3LineListUsingBC.
func runUsingBC(l *list.List, changes []diferenco.Change, lenB int, anchors []ManualAnchor) {
	i3b := l.Front()
	i3c := l.Front()
	lineB, lineC := 0, 0
	idx := 0
	runLen := 0
	for idx <= len(changes) {
		var equalsUntil, delN, insN int
		if idx < len(changes) {
			ch := changes[idx]
			equalsUntil = ch.P1
			delN = ch.Del
			insN = ch.Ins
		} else {
			equalsUntil = lenB
			delN, insN = 0, 0
		}
		runLen = equalsUntil - lineB
		for lineB < equalsUntil {
			for i3b != nil && i3b.Value.(*diff3Line).lineB != lineB {
				i3b = i3b.Next()
			}
			for i3c != nil && i3c.Value.(*diff3Line).lineC != lineC {
				i3c = i3c.Next()
			}
			if i3b == i3c {
				i3b.Value.(*diff3Line).bEqC = true
			} else {
				migrateBC(l, i3b, i3c, anchors, runLen)
			}
			lineB++
			lineC++
			i3b = i3b.Next()
			i3c = i3c.Next()
		}
		// Lines in this del/ins run are already present in the backbone
		// (seeded by AB, woven by AC); BC only needed to confirm equality
		// for the equals-run above, so a del/ins run here just advances
		// past rows this pass does not touch.
		lineB += delN
		lineC += insN
		idx++
	}
}

// migrateBC attempts to co-locate a B-only row and a C-only row that BC
// just declared equal, moving the shorter distance and relocating any
// disturbing lines in between, ported from the body of
// calcDiff3LineListUsingBC's "i3b != i3c" branch.
func migrateBC(l *list.List, i3b, i3c *list.Element, anchors []ManualAnchor, runLen int) {
	// Determine which comes first.
	cFirst := false
	for e := i3c; e != nil; e = e.Next() {
		if e == i3b {
			cFirst = true
			break
		}
	}

	if cFirst && !i3b.Value.(*diff3Line).aEqB {
		nofDisturbing := 0
		for e := i3c; e != nil && e != i3b; e = e.Next() {
			if e.Value.(*diff3Line).lineB != none {
				nofDisturbing++
			}
		}
		if nofDisturbing > 0 {
			if !withinTolerance(nofDisturbing, runLen) {
				return
			}
			for e := i3c; e != nil && e != i3b; e = e.Next() {
				cur := e.Value.(*diff3Line)
				if cur.lineB != none {
					if !isValidMove(anchors, cur.lineB, -1, 2, 2) {
						return
					}
					d := newDiff3Line()
					d.lineB = cur.lineB
					l.InsertBefore(d, i3c)
					cur.lineB = none
					cur.aEqB = false
					cur.bEqC = false
				}
			}
		}
		b := i3b.Value.(*diff3Line)
		c := i3c.Value.(*diff3Line)
		movedLineB := b.lineB
		b.lineB = none
		b.aEqB = false
		b.aEqC = false
		b.bEqC = false
		c.lineB = movedLineB
		c.bEqC = true
	} else if !cFirst && !i3c.Value.(*diff3Line).aEqC {
		nofDisturbing := 0
		for e := i3b; e != nil && e != i3c; e = e.Next() {
			if e.Value.(*diff3Line).lineC != none {
				nofDisturbing++
			}
		}
		if nofDisturbing > 0 {
			if !withinTolerance(nofDisturbing, runLen) {
				return
			}
			for e := i3b; e != nil && e != i3c; e = e.Next() {
				cur := e.Value.(*diff3Line)
				if cur.lineC != none {
					if !isValidMove(anchors, cur.lineC, -1, 3, 3) {
						return
					}
					d := newDiff3Line()
					d.lineC = cur.lineC
					l.InsertBefore(d, i3b)
					cur.lineC = none
					cur.aEqC = false
					cur.bEqC = false
				}
			}
		}
		c := i3c.Value.(*diff3Line)
		bLineC := c.lineC
		c.lineC = none
		c.aEqC = false
		c.bEqC = false
		b := i3b.Value.(*diff3Line)
		b.lineC = bLineC
		b.bEqC = true
	}
}

// Align runs the full three-pass construction (AB seed, AC weave, BC
// refine) and returns the resulting Diff3LineList as a slice, using
// index-based cursors from here on rather than the list.List used
// internally during construction: everything downstream of
// construction (trim onward) migrates rows at specific offsets rather
// than splicing iterators, which an owned vector with index cursors
// expresses more directly than a linked list.
func Align(ctx context.Context, la, lb, lc *LineArray, opts diferenco.EqualityOptions, anchors []ManualAnchor) ([]*diff3Line, error) {
	textA := linesText(la)
	textB := linesText(lb)
	textC := linesText(lc)

	ab, err := diferenco.GnuMyersLines(ctx, textA, textB, pairOptions(opts, la, lb))
	if err != nil {
		return nil, err
	}
	ac, err := diferenco.GnuMyersLines(ctx, textA, textC, pairOptions(opts, la, lc))
	if err != nil {
		return nil, err
	}

	l := runUsingAB(ab, len(textA))
	runUsingAC(l, ac, len(textA))

	// The BC diff is taken directly off the B/C text, not re-derived from
	// the AB/AC results, matching calcDiff3LineListUsingBC.
	bc, err := diferenco.GnuMyersLines(ctx, textB, textC, pairOptions(opts, lb, lc))
	if err != nil {
		return nil, err
	}
	runUsingBC(l, bc, len(textB), anchors)
	convergeAtAnchor(l, anchors)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]*diff3Line, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		rows = append(rows, e.Value.(*diff3Line))
	}
	return rows, nil
}

// lineInCol returns row's index for anchor column wi (1=A, 2=B, 3=C).
func lineInCol(d *diff3Line, wi int) int {
	switch wi {
	case 1:
		return d.lineA
	case 2:
		return d.lineB
	default:
		return d.lineC
	}
}

func firstLine(a ManualAnchor, wi int) int {
	r := colRange(a, wi)
	if noRange(r) {
		return -1
	}
	return r[0]
}

// convergeAtAnchor re-aligns rows split across a manual anchor boundary
// that construction didn't manage to line up on one row, ported from
// correctManualDiffAlignment: for each anchor, find the row where one
// column first reaches the anchor's start line, then pull the other
// columns' matching rows up to meet it, inserting filler rows for any
// lines that land in between.
func convergeAtAnchor(l *list.List, anchors []ManualAnchor) {
	for _, anchor := range anchors {
		alignedSum := 0
		for wi := 1; wi <= 3; wi++ {
			if firstLine(anchor, wi) >= 0 {
				alignedSum++
			}
		}
		if alignedSum <= 1 {
			continue
		}
		missingWinIdx := 0
		preferredWinIdx := 0
		if alignedSum == 2 {
			switch {
			case firstLine(anchor, 1) < 0:
				missingWinIdx, preferredWinIdx = 1, 2
			case firstLine(anchor, 2) < 0:
				missingWinIdx, preferredWinIdx = 2, 1
			default:
				missingWinIdx, preferredWinIdx = 3, 1
			}
		}
		_ = preferredWinIdx

		var i3 *list.Element
		wi := 0
		for e := l.Front(); e != nil; e = e.Next() {
			found := 0
			for w := 1; w <= 3; w++ {
				row := e.Value.(*diff3Line)
				if li := lineInCol(row, w); li >= 0 && firstLine(anchor, w) == li {
					found = w
					break
				}
			}
			if found != 0 {
				wi = found
				i3 = e
				break
			}
		}
		if i3 == nil || wi == 0 {
			continue
		}

		iDest := i3
		for e := i3; e != nil; e = e.Next() {
			row := e.Value.(*diff3Line)
			wi2 := 0
			for w := 1; w <= 3; w++ {
				if w == wi {
					continue
				}
				if li := lineInCol(row, w); li >= 0 && firstLine(anchor, w) == li {
					wi2 = w
					break
				}
			}
			if wi2 == 0 {
				d := newDiff3Line()
				switch wi {
				case 1:
					d.bEqC = row.bEqC
					d.lineB = row.lineB
					d.lineC = row.lineC
					row.lineB, row.lineC = none, none
				case 2:
					d.aEqC = row.aEqC
					d.lineA = row.lineA
					d.lineC = row.lineC
					row.lineA, row.lineC = none, none
				case 3:
					d.aEqB = row.aEqB
					d.lineA = row.lineA
					d.lineB = row.lineB
					row.lineA, row.lineB = none, none
				}
				row.aEqB, row.aEqC, row.bEqC = false, false, false
				l.InsertBefore(d, iDest)
				continue
			}

			if e != iDest {
				dest := iDest.Value.(*diff3Line)
				switch wi2 {
				case 1:
					dest.lineA = row.lineA
					row.lineA = none
					row.aEqB, row.aEqC = false, false
				case 2:
					dest.lineB = row.lineB
					row.lineB = none
					row.aEqB, row.bEqC = false, false
				case 3:
					dest.lineC = row.lineC
					row.lineC = none
					row.bEqC, row.aEqC = false, false
				}
			}

			if missingWinIdx != 0 {
				for e2 := e; e2 != nil; e2 = e2.Next() {
					row2 := e2.Value.(*diff3Line)
					li := lineInCol(row2, missingWinIdx)
					if li < 0 {
						continue
					}
					d := newDiff3Line()
					switch missingWinIdx {
					case 1:
						if row2.aEqB {
							e = nil
						}
						d.lineA = row2.lineA
						row2.lineA = none
						row2.aEqB, row2.aEqC = false, false
					case 2:
						if row2.aEqB {
							e = nil
						}
						d.lineB = row2.lineB
						row2.lineB = none
						row2.aEqB, row2.bEqC = false, false
					case 3:
						if row2.aEqC {
							e = nil
						}
						d.lineC = row2.lineC
						row2.lineC = none
						row2.aEqC, row2.bEqC = false, false
					}
					if e == nil {
						break
					}
					l.InsertBefore(d, iDest)
				}
			}
			break
		}
	}
}

// pairOptions attaches a CommentMask for this specific pair of sides
// when IgnoreComments is set: GnuMyersLines indexes CommentMask by the
// two sides actually being compared (0=left, 1=right), which differs
// for each of the AB/AC/BC calls Align makes off the same opts value.
func pairOptions(opts diferenco.EqualityOptions, left, right *LineArray) diferenco.EqualityOptions {
	if !opts.IgnoreComments {
		return opts
	}
	opts.CommentMask = [2][]bool{commentMask(left), commentMask(right)}
	return opts
}

func commentMask(la *LineArray) []bool {
	mask := make([]bool, len(la.Lines))
	for i, ln := range la.Lines {
		mask[i] = ln.PureComment
	}
	return mask
}

func linesText(la *LineArray) []string {
	out := make([]string, len(la.Lines))
	for i, ln := range la.Lines {
		out[i] = ln.Text
	}
	return out
}
