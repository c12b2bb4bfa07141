package diferenco

import (
	"context"
	"strings"
)

// EqualityOptions controls how two lines are considered equivalent before
// they ever reach the GNU-style discard/Myers comparison. Every field
// narrows equivalence (more lines compare equal), never widens it.
type EqualityOptions struct {
	IgnoreWhitespace    bool
	IgnoreCase          bool
	IgnoreNumbers       bool
	IgnoreComments      bool
	// IgnoreTrivialMatches is accepted but read by no comparison in this
	// package or in modules/diff3; setting it does not change any result.
	IgnoreTrivialMatches bool

	// CommentMask, when IgnoreComments is set, flags lines of A and B that
	// lie entirely inside a comment (as determined by a caller-supplied
	// scanner, e.g. modules/diff3's comment scanner). All fully-commented
	// lines are folded into one equivalence class regardless of their
	// text, matching kdiff3's "ignore comments" option.
	CommentMask [2][]bool
}

// Normalize rewrites a line's text into its equivalence key under opts,
// exported so callers outside this package (modules/diff3's trim pass)
// can test two lines for equivalence the same way the pairwise differ
// does, rather than falling back to a strict byte comparison.
func (opts EqualityOptions) Normalize(line string) string {
	if opts.IgnoreWhitespace {
		line = collapseWhitespace(line)
	}
	if opts.IgnoreCase {
		line = strings.ToLower(line)
	}
	if opts.IgnoreNumbers {
		line = stripNumbers(line)
	}
	return line
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			inSpace = true
			continue
		}
		if inSpace {
			inSpace = false
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripNumbers maps every ASCII digit to '0', so any digit compares equal
// to any other digit in the same position.
func stripNumbers(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte('0')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// gnuFileData mirrors GnuDiff::file_data: the per-side working state of
// the discard+compare pass, grounded on kdiff3's src/gnudiff_analyze.cpp.
type gnuFileData struct {
	equivs           []int // equivalence class per original line
	changed          []bool
	undiscarded      []int // equivalence classes of the kept (non-discarded) lines
	realIndexes      []int // undiscarded[i] came from original line realIndexes[i]
	nonDiscardedLines int
}

const (
	snakeLimit = 20
	speedLarge = true
)

type gnuPartition struct {
	xmid, ymid         int
	loMinimal, hiMinimal bool
}

type gnuCompare struct {
	ctx          context.Context
	xvec, yvec   []int
	fdiag, bdiag []int
	fbase        int // fdiag/bdiag are offset so index 0 maps to diagonal -fbase
	tooExpensive int
	minimal      bool
	files        [2]gnuFileData
	canceled     bool
}

func (g *gnuCompare) fd(d int) int      { return g.fdiag[d+g.fbase] }
func (g *gnuCompare) setFd(d, v int)    { g.fdiag[d+g.fbase] = v }
func (g *gnuCompare) bd(d int) int      { return g.bdiag[d+g.fbase] }
func (g *gnuCompare) setBd(d, v int)    { g.bdiag[d+g.fbase] = v }

// diag finds the midpoint of the shortest edit script for xvec[xoff:xlim]
// vs yvec[yoff:ylim], ported from GnuDiff::diag.
func (g *gnuCompare) diag(xoff, xlim, yoff, ylim int, findMinimal bool) (cost int, part gnuPartition) {
	dmin := xoff - ylim
	dmax := xlim - yoff
	fmid := xoff - yoff
	bmid := xlim - ylim
	fmin, fmax := fmid, fmid
	bmin, bmax := bmid, bmid
	odd := (fmid-bmid)&1 != 0

	g.setFd(fmid, xoff)
	g.setBd(bmid, xlim)

	for c := 1; ; c++ {
		if c%64 == 0 && g.ctx.Err() != nil {
			g.canceled = true
			part.loMinimal, part.hiMinimal = true, true
			part.xmid, part.ymid = xoff, yoff
			return 2*c - 1, part
		}
		bigSnake := false

		if fmin > dmin {
			fmin--
			g.setFd(fmin-1, -1)
		} else {
			fmin++
		}
		if fmax < dmax {
			fmax++
			g.setFd(fmax+1, -1)
		} else {
			fmax--
		}
		for d := fmax; d >= fmin; d -= 2 {
			var x, y, oldx int
			tlo, thi := g.fd(d-1), g.fd(d+1)
			if tlo >= thi {
				x = tlo + 1
			} else {
				x = thi
			}
			oldx = x
			y = x - d
			for x < xlim && y < ylim && g.xvec[x] == g.yvec[y] {
				x++
				y++
			}
			if x-oldx > snakeLimit {
				bigSnake = true
			}
			g.setFd(d, x)
			if odd && bmin <= d && d <= bmax && g.bd(d) <= x {
				part.xmid, part.ymid = x, y
				part.loMinimal, part.hiMinimal = true, true
				return 2*c - 1, part
			}
		}

		if bmin > dmin {
			bmin--
			g.setBd(bmin-1, maxInt)
		} else {
			bmin++
		}
		if bmax < dmax {
			bmax++
			g.setBd(bmax+1, maxInt)
		} else {
			bmax--
		}
		for d := bmax; d >= bmin; d -= 2 {
			var x, y, oldx int
			tlo, thi := g.bd(d-1), g.bd(d+1)
			if tlo < thi {
				x = tlo
			} else {
				x = thi - 1
			}
			oldx = x
			y = x - d
			for x > xoff && y > yoff && g.xvec[x-1] == g.yvec[y-1] {
				x--
				y--
			}
			if oldx-x > snakeLimit {
				bigSnake = true
			}
			g.setBd(d, x)
			if !odd && fmin <= d && d <= fmax && x <= g.fd(d) {
				part.xmid, part.ymid = x, y
				part.loMinimal, part.hiMinimal = true, true
				return 2 * c, part
			}
		}

		if findMinimal {
			continue
		}

		if c > 200 && bigSnake && speedLarge {
			best := 0
			for d := fmax; d >= fmin; d -= 2 {
				dd := d - fmid
				x := g.fd(d)
				y := x - d
				v := (x-xoff)*2 - dd
				if v > 12*(c+absInt(dd)) {
					if v > best && xoff+snakeLimit <= x && x < xlim && yoff+snakeLimit <= y && y < ylim {
						k := 1
						for g.xvec[x-k] == g.yvec[y-k] {
							if k == snakeLimit {
								best = v
								part.xmid, part.ymid = x, y
								break
							}
							k++
						}
					}
				}
			}
			if best > 0 {
				part.loMinimal, part.hiMinimal = true, false
				return 2*c - 1, part
			}
			best = 0
			for d := bmax; d >= bmin; d -= 2 {
				dd := d - bmid
				x := g.bd(d)
				y := x - d
				v := (xlim-x)*2 + dd
				if v > 12*(c+absInt(dd)) {
					if v > best && xoff < x && x <= xlim-snakeLimit && yoff < y && y <= ylim-snakeLimit {
						k := 0
						for g.xvec[x+k] == g.yvec[y+k] {
							if k == snakeLimit-1 {
								best = v
								part.xmid, part.ymid = x, y
								break
							}
							k++
						}
					}
				}
			}
			if best > 0 {
				part.loMinimal, part.hiMinimal = false, true
				return 2*c - 1, part
			}
		}

		if c >= g.tooExpensive {
			fxybest, fxbest := -1, 0
			for d := fmax; d >= fmin; d -= 2 {
				x := minInt(g.fd(d), xlim)
				y := x - d
				if ylim < y {
					x, y = ylim+d, ylim
				}
				if fxybest < x+y {
					fxybest = x + y
					fxbest = x
				}
			}
			bxybest, bxbest := maxInt, 0
			for d := bmax; d >= bmin; d -= 2 {
				x := maxOf(xoff, g.bd(d))
				y := x - d
				if y < yoff {
					x, y = yoff+d, yoff
				}
				if x+y < bxybest {
					bxybest = x + y
					bxbest = x
				}
			}
			if (xlim+ylim)-bxybest < fxybest-(xoff+yoff) {
				part.xmid = fxbest
				part.ymid = fxybest - fxbest
				part.loMinimal, part.hiMinimal = true, false
			} else {
				part.xmid = bxbest
				part.ymid = bxybest - bxbest
				part.loMinimal, part.hiMinimal = false, true
			}
			return 2*c - 1, part
		}
	}
}

// compareseq recursively narrows [xoff,xlim)x[yoff,ylim) to changed spans,
// ported from GnuDiff::compareseq.
func (g *gnuCompare) compareseq(xoff, xlim, yoff, ylim int, findMinimal bool) {
	if g.canceled {
		return
	}
	for xoff < xlim && yoff < ylim && g.xvec[xoff] == g.yvec[yoff] {
		xoff++
		yoff++
	}
	for xlim > xoff && ylim > yoff && g.xvec[xlim-1] == g.yvec[ylim-1] {
		xlim--
		ylim--
	}

	switch {
	case xoff == xlim:
		for yoff < ylim {
			g.files[1].changed[g.files[1].realIndexes[yoff]] = true
			yoff++
		}
	case yoff == ylim:
		for xoff < xlim {
			g.files[0].changed[g.files[0].realIndexes[xoff]] = true
			xoff++
		}
	default:
		_, part := g.diag(xoff, xlim, yoff, ylim, findMinimal)
		if g.canceled {
			return
		}
		g.compareseq(xoff, part.xmid, yoff, part.ymid, part.loMinimal)
		g.compareseq(part.xmid, xlim, part.ymid, ylim, part.hiMinimal)
	}
}

// discardConfusingLines marks lines that match nothing (or nearly
// everything) in the other side as provisional discards, then keeps a
// discard only when it sits in a long-enough run, per
// GnuDiff::discard_confusing_lines.
func discardConfusingLines(files [2]gnuFileData, equivMax int) {
	lens := [2]int{len(files[0].equivs), len(files[1].equivs)}

	var equivCount [2][]int
	equivCount[0] = make([]int, equivMax)
	equivCount[1] = make([]int, equivMax)
	for i := 0; i < lens[0]; i++ {
		equivCount[0][files[0].equivs[i]]++
	}
	for i := 0; i < lens[1]; i++ {
		equivCount[1][files[1].equivs[i]]++
	}

	var discarded [2][]int8
	discarded[0] = make([]int8, lens[0])
	discarded[1] = make([]int8, lens[1])

	for f := 0; f < 2; f++ {
		end := lens[f]
		counts := equivCount[1-f]
		equivs := files[f].equivs
		many := 5
		tem := end / 64
		for tem = tem >> 2; tem > 0; tem >>= 2 {
			many *= 2
		}
		for i := 0; i < end; i++ {
			if equivs[i] == 0 {
				continue
			}
			nmatch := counts[equivs[i]]
			switch {
			case nmatch == 0:
				discarded[f][i] = 1
			case nmatch > many:
				discarded[f][i] = 2
			}
		}
	}

	for f := 0; f < 2; f++ {
		end := lens[f]
		discards := discarded[f]
		for i := 0; i < end; i++ {
			switch {
			case discards[i] == 2:
				discards[i] = 0
			case discards[i] != 0:
				j := i
				provisional := 0
				for ; j < end; j++ {
					if discards[j] == 0 {
						break
					}
					if discards[j] == 2 {
						provisional++
					}
				}
				for j > i && discards[j-1] == 2 {
					j--
					discards[j] = 0
					provisional--
				}
				length := j - i
				if provisional*4 > length {
					for j > i {
						j--
						if discards[j] == 2 {
							discards[j] = 0
						}
					}
				} else {
					minimum := 1
					tem := length >> 2
					for tem >>= 2; tem > 0; tem >>= 2 {
						minimum <<= 1
					}
					minimum++

					consec := 0
					for jj := 0; jj < length; jj++ {
						if discards[i+jj] != 2 {
							consec = 0
						} else if minimum == consec+1 {
							consec++
							jj -= consec
						} else if minimum < consec+1 {
							discards[i+jj] = 0
							consec++
						} else {
							consec++
						}
					}

					consec = 0
					for jj := 0; jj < length; jj++ {
						if jj >= 8 && discards[i+jj] == 1 {
							break
						}
						if discards[i+jj] == 2 {
							consec = 0
							discards[i+jj] = 0
						} else if discards[i+jj] == 0 {
							consec = 0
						} else {
							consec++
						}
						if consec == 3 {
							break
						}
					}
					i += length - 1
					consec = 0
					for jj := 0; jj < length; jj++ {
						if jj >= 8 && discards[i-jj] == 1 {
							break
						}
						if discards[i-jj] == 2 {
							consec = 0
							discards[i-jj] = 0
						} else if discards[i-jj] == 0 {
							consec = 0
						} else {
							consec++
						}
						if consec == 3 {
							break
						}
					}
				}
			}
		}
	}

	for f := 0; f < 2; f++ {
		discards := discarded[f]
		end := lens[f]
		j := 0
		for i := 0; i < end; i++ {
			if discards[i] == 0 {
				files[f].undiscarded[j] = files[f].equivs[i]
				files[f].realIndexes[j] = i
				j++
			} else {
				files[f].changed[i] = true
			}
		}
		files[f].nonDiscardedLines = j
	}
}

// shiftBoundaries slides merged runs of changed lines towards a matching
// identical line at either end, so that adjacent edits join into one
// hunk instead of splitting across an incidental repeat, ported from
// GnuDiff::shift_boundaries.
func shiftBoundaries(files [2]gnuFileData) {
	for f := 0; f < 2; f++ {
		changed := files[f].changed
		otherChanged := files[1-f].changed
		equivs := files[f].equivs
		i, j := 0, 0
		iEnd := len(changed)

		for {
			for i < iEnd && !changed[i] {
				for j < len(otherChanged) && otherChanged[j] {
					j++
				}
				j++
				i++
			}
			if i >= iEnd {
				break
			}
			start := i
			for i < iEnd && changed[i] {
				i++
			}
			for j < len(otherChanged) && otherChanged[j] {
				j++
			}

			var runlength, corresponding int
			for {
				runlength = i - start
				for start > 0 && equivs[start-1] == equivs[i-1] {
					start--
					changed[start] = true
					i--
					changed[i] = false
					for start > 0 && changed[start-1] {
						start--
					}
					for j > 0 {
						j--
						if !otherChanged[j] {
							break
						}
					}
				}
				if j > 0 && otherChanged[j-1] {
					corresponding = i
				} else {
					corresponding = iEnd
				}
				for i != iEnd && equivs[start] == equivs[i] {
					changed[start] = false
					start++
					changed[i] = true
					i++
					for i < iEnd && changed[i] {
						i++
					}
					for {
						j++
						if j >= len(otherChanged) || !otherChanged[j] {
							break
						}
						corresponding = i
					}
				}
				if runlength == i-start {
					break
				}
			}

			for corresponding < i {
				start--
				changed[start] = true
				i--
				changed[i] = false
				for j > 0 {
					j--
					if !otherChanged[j] {
						break
					}
				}
			}
		}
	}
}

// buildChanges scans the changed[] flags of both sides into a []Change
// edit script, ported from GnuDiff::build_script.
func buildChanges(files [2]gnuFileData) []Change {
	changed0, changed1 := files[0].changed, files[1].changed
	len0, len1 := len(changed0), len(changed1)
	get0 := func(i int) bool {
		if i < 0 || i >= len0 {
			return false
		}
		return changed0[i]
	}
	get1 := func(i int) bool {
		if i < 0 || i >= len1 {
			return false
		}
		return changed1[i]
	}

	var changes []Change
	i0, i1 := 0, 0
	for i0 < len0 || i1 < len1 {
		if get0(i0) || get1(i1) {
			line0, line1 := i0, i1
			for get0(i0) {
				i0++
			}
			for get1(i1) {
				i1++
			}
			changes = append(changes, Change{P1: line0, P2: line1, Del: i0 - line0, Ins: i1 - line1})
		}
		i0++
		i1++
	}
	return changes
}

// GnuMyersLines runs the GNU-diffutils-style discard-heuristic Myers
// differ over already-split line slices, honoring opts for equivalence
// and ctx for cooperative cancellation. This is diff3's default pairwise
// differ; modules/diff3 calls it directly so it can pass real line text
// instead of the opaque comparable elements the generic DiffLines
// dispatcher works with.
func GnuMyersLines(ctx context.Context, a, b []string, opts EqualityOptions) ([]Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(a) == 0 && len(b) == 0 {
		return nil, nil
	}

	classes := make(map[string]int)
	classOf := func(line string) int {
		key := opts.Normalize(line)
		if id, ok := classes[key]; ok {
			return id
		}
		id := len(classes) + 1 // 0 is reserved, matching equivs[i]==0 meaning "no class"
		classes[key] = id
		return id
	}

	equivs := [2][]int{make([]int, len(a)), make([]int, len(b))}
	sides := [2][]string{a, b}
	for side := 0; side < 2; side++ {
		for i, line := range sides[side] {
			if opts.IgnoreComments && len(opts.CommentMask[side]) > i && opts.CommentMask[side][i] {
				equivs[side][i] = -1 // folded below into one shared class
				continue
			}
			equivs[side][i] = classOf(line)
		}
	}
	if opts.IgnoreComments {
		commentClass := len(classes) + 1
		for side := 0; side < 2; side++ {
			for i, c := range equivs[side] {
				if c == -1 {
					equivs[side][i] = commentClass
				}
			}
		}
	}

	files := [2]gnuFileData{
		{equivs: equivs[0], changed: make([]bool, len(a)+1), undiscarded: make([]int, len(a)), realIndexes: make([]int, len(a))},
		{equivs: equivs[1], changed: make([]bool, len(b)+1), undiscarded: make([]int, len(b)), realIndexes: make([]int, len(b))},
	}
	discardConfusingLines(files, len(classes)+2)

	diags := files[0].nonDiscardedLines + files[1].nonDiscardedLines + 3
	fbase := files[1].nonDiscardedLines + 1
	tooExpensive := 1
	for d := diags; d != 0; d >>= 2 {
		tooExpensive <<= 1
	}
	if tooExpensive < 256 {
		tooExpensive = 256
	}

	g := &gnuCompare{
		ctx:          ctx,
		xvec:         files[0].undiscarded[:files[0].nonDiscardedLines],
		yvec:         files[1].undiscarded[:files[1].nonDiscardedLines],
		fdiag:        make([]int, 2*diags+1),
		bdiag:        make([]int, 2*diags+1),
		fbase:        fbase,
		tooExpensive: tooExpensive,
		files:        files,
	}
	g.compareseq(0, files[0].nonDiscardedLines, 0, files[1].nonDiscardedLines, false)
	if g.canceled {
		return nil, ctx.Err()
	}

	shiftBoundaries(files)
	return buildChanges(files), nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

const maxInt = int(^uint(0) >> 1)
