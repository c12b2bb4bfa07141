package diff3

// ConflictClass tags a MergeRow with the reason behind its default
// choice.
type ConflictClass int

const (
	NoChange ConflictClass = iota
	CChanged
	BChanged
	IdenticalBC
	Conflict
	OneDeleted
	NewFromA
	NewFromB
	NewFromC
)

func (c ConflictClass) String() string {
	switch c {
	case NoChange:
		return "NoChange"
	case CChanged:
		return "C_Changed"
	case BChanged:
		return "B_Changed"
	case IdenticalBC:
		return "Identical_BC"
	case Conflict:
		return "Conflict"
	case OneDeleted:
		return "OneDeleted"
	case NewFromA:
		return "NewFromA"
	case NewFromB:
		return "NewFromB"
	case NewFromC:
		return "NewFromC"
	default:
		return "Unknown"
	}
}

// Choice names which column's line a MergeRow's default resolves to.
type Choice int

const (
	ChoiceA Choice = iota
	ChoiceB
	ChoiceC
	ChoiceNone
	ChoiceUnsolved
)

// MergeRow is one resolved output row: the aligned indices from the
// Diff3LineList plus the resolver's verdict and, if the embedder
// recorded one, a per-row override that always wins over Default.
type MergeRow struct {
	LineA, LineB, LineC int
	Class               ConflictClass
	Default             Choice
	WhitespaceOnly      bool
	Override            *Choice
}

// Resolve classifies every row of an aligned, fine-diffed Diff3LineList
// and assigns each a default merge choice, per the table in §4.6.
func Resolve(rows []*diff3Line) []MergeRow {
	out := make([]MergeRow, len(rows))
	for i, r := range rows {
		out[i] = resolveRow(r)
	}
	return out
}

func resolveRow(r *diff3Line) MergeRow {
	row := MergeRow{LineA: r.lineA, LineB: r.lineB, LineC: r.lineC}

	present := 0
	if r.lineA != none {
		present++
	}
	if r.lineB != none {
		present++
	}
	if r.lineC != none {
		present++
	}

	whitespaceOnly := r.whiteA && r.whiteB && r.whiteC

	switch present {
	case 3:
		switch {
		case r.aEqB && r.aEqC && r.bEqC:
			row.Class, row.Default = NoChange, ChoiceA
		case r.aEqB && !r.aEqC:
			row.Class, row.Default = CChanged, ChoiceC
		case r.aEqC && !r.aEqB:
			row.Class, row.Default = BChanged, ChoiceB
		case r.bEqC && !r.aEqC:
			row.Class, row.Default = IdenticalBC, ChoiceB
		default:
			row.Class, row.Default = Conflict, ChoiceUnsolved
			row.WhitespaceOnly = whitespaceOnly
			if whitespaceOnly {
				row.Default = ChoiceB
			}
		}
	case 2:
		switch {
		case r.lineA == none:
			if r.bEqC {
				row.Class, row.Default = OneDeleted, ChoiceNone
			} else {
				row.Class, row.Default = Conflict, ChoiceUnsolved
				row.WhitespaceOnly = whitespaceOnly
				if whitespaceOnly {
					row.Default = ChoiceB
				}
			}
		case r.lineB == none:
			if r.aEqC {
				row.Class, row.Default = OneDeleted, ChoiceNone
			} else {
				row.Class, row.Default = Conflict, ChoiceUnsolved
				row.WhitespaceOnly = whitespaceOnly
				if whitespaceOnly {
					row.Default = ChoiceB
				}
			}
		case r.lineC == none:
			if r.aEqB {
				row.Class, row.Default = OneDeleted, ChoiceNone
			} else {
				row.Class, row.Default = Conflict, ChoiceUnsolved
				row.WhitespaceOnly = whitespaceOnly
				if whitespaceOnly {
					row.Default = ChoiceB
				}
			}
		}
	case 1:
		switch {
		case r.lineA != none:
			row.Class, row.Default = NewFromA, ChoiceA
		case r.lineB != none:
			row.Class, row.Default = NewFromB, ChoiceB
		default:
			row.Class, row.Default = NewFromC, ChoiceC
		}
	default:
		// present == 0 never happens for a non-empty row; Trim filters
		// all-empty rows out of the Diff3LineList before Resolve runs.
		row.Class, row.Default = Conflict, ChoiceUnsolved
	}

	return row
}

// SetOverride records a caller-chosen resolution for row i, replacing
// its Default verbatim per the resolver guarantee in §4.6.
func SetOverride(rows []MergeRow, i int, choice Choice) {
	rows[i].Override = &choice
}

func (m MergeRow) resolved() Choice {
	if m.Override != nil {
		return *m.Override
	}
	return m.Default
}
