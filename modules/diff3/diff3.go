package diff3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/mergetools/diff3/modules/diferenco"
)

// Result is the outcome of a three-way Merge: the merged text plus
// whether any row remains unresolved.
type Result struct {
	Result    io.Reader
	Conflicts bool
}

// Merge reads three whole files (A, O=origin/ancestor, B) and produces
// a three-way merge in the "diff3" conflict style: readers in, a
// Result out. excludeFalseConflicts treats whitespace-only conflicts
// as auto-resolved (using the B side) instead of surfacing a marker,
// mirroring kdiff3's "ignore whitespace" merge option.
func Merge(a, o, b io.Reader, excludeFalseConflicts bool, labelA, labelB string) (*Result, error) {
	return MergeWithOptions(a, o, b, excludeFalseConflicts, labelA, labelB, diferenco.EqualityOptions{})
}

// MergeWithOptions is Merge with an explicit EqualityOptions, letting a
// caller turn on ignore-whitespace/case/numbers/comments the same way
// modules/diferenco's pairwise differ does. IgnoreTrivialMatches is
// accepted but has no effect.
func MergeWithOptions(a, o, b io.Reader, excludeFalseConflicts bool, labelA, labelB string, opts diferenco.EqualityOptions) (*Result, error) {
	textA, err := io.ReadAll(a)
	if err != nil {
		return nil, fmt.Errorf("diff3: reading A: %w", err)
	}
	textO, err := io.ReadAll(o)
	if err != nil {
		return nil, fmt.Errorf("diff3: reading O: %w", err)
	}
	textB, err := io.ReadAll(b)
	if err != nil {
		return nil, fmt.Errorf("diff3: reading B: %w", err)
	}

	content, conflict, err := merge(context.Background(), string(textO), string(textA), string(textB), diferenco.STYLE_DIFF3, labelA, "", labelB, excludeFalseConflicts, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Result: bytes.NewReader([]byte(content)), Conflicts: conflict}, nil
}

// SimpleMerge is the string-in/string-out form used by callers that
// already hold the three texts in memory (e.g. the merge-file CLI
// command). style selects the conflict-marker style by name
// ("merge"/"diff3"/"zdiff3"; empty defaults to "merge"), reusing
// diferenco.ParseConflictStyle so a style name means the same in both
// merge engines the CLI can select between.
func SimpleMerge(ctx context.Context, textO, textA, textB string, style string, labelA, labelB string) (string, bool, error) {
	return SimpleMergeWithOptions(ctx, textO, textA, textB, style, labelA, labelB, diferenco.EqualityOptions{})
}

// SimpleMergeWithOptions is SimpleMerge with an explicit EqualityOptions;
// the CLI's merge-file command uses this to turn -X ignore_whitespace=1
// (and friends) into something the aligner and trim pass actually see.
func SimpleMergeWithOptions(ctx context.Context, textO, textA, textB string, style string, labelA, labelB string, opts diferenco.EqualityOptions) (string, bool, error) {
	styleInt := diferenco.ParseConflictStyle(style)
	return merge(ctx, textO, textA, textB, styleInt, labelA, "", labelB, false, opts)
}

func merge(ctx context.Context, textO, textA, textB string, style int, labelA, labelO, labelB string, excludeFalseConflicts bool, opts diferenco.EqualityOptions) (string, bool, error) {
	la := Ingest(textA, false)
	lb := Ingest(textB, false)
	lc := Ingest(textO, false)

	rows, err := Align(ctx, la, lb, lc, opts, nil)
	if err != nil {
		return "", false, fmt.Errorf("diff3: align: %w", err)
	}
	rows = Trim(rows, la, lb, lc, opts, nil)
	if _, _, _, err := FineDiff(ctx, rows, la, lb, lc); err != nil {
		return "", false, fmt.Errorf("diff3: fine diff: %w", err)
	}

	mergeRows := Resolve(rows)

	var buf bytes.Buffer
	conflicts := emit(&buf, mergeRows, la, lb, lc, style, labelA, labelO, labelB, excludeFalseConflicts)
	return buf.String(), conflicts, nil
}

// emit walks the resolved MergeRow list and writes the merged text,
// bracketing consecutive unresolved runs with the conflict delimiters
// from modules/diferenco/merge.go (Sep1/SepO/Sep2/Sep3) in "A section,
// B section, C section" order.
func emit(out io.Writer, rows []MergeRow, la, lb, lc *LineArray, style int, labelA, labelO, labelB string, excludeFalseConflicts bool) bool {
	anyConflict := false
	i := 0
	for i < len(rows) {
		row := rows[i]
		choice := row.resolved()
		if row.WhitespaceOnly && row.Override == nil && !excludeFalseConflicts {
			choice = ChoiceUnsolved
		}
		if choice != ChoiceUnsolved {
			writeChoice(out, row, choice, la, lb, lc)
			i++
			continue
		}

		j := i
		for j < len(rows) {
			c := rows[j].resolved()
			if rows[j].WhitespaceOnly && rows[j].Override == nil && !excludeFalseConflicts {
				c = ChoiceUnsolved
			}
			if c != ChoiceUnsolved {
				break
			}
			j++
		}
		anyConflict = true
		writeConflictRun(out, rows[i:j], la, lb, lc, style, labelA, labelO, labelB)
		i = j
	}
	return anyConflict
}

// writeLine writes a line's text followed by its own original
// terminator (possibly none), instead of normalizing every emitted line
// to "\n", so CRLF/CR input round-trips through a merge unchanged.
func writeLine(out io.Writer, arr *LineArray, idx int) {
	if idx == none {
		return
	}
	ln := arr.Lines[idx]
	_, _ = io.WriteString(out, ln.Text)
	_, _ = io.WriteString(out, ln.Ending.Bytes())
}

func writeChoice(out io.Writer, row MergeRow, choice Choice, la, lb, lc *LineArray) {
	switch choice {
	case ChoiceA:
		writeLine(out, la, row.LineA)
	case ChoiceB:
		writeLine(out, lb, row.LineB)
	case ChoiceC:
		writeLine(out, lc, row.LineC)
	case ChoiceNone:
		// OneDeleted: deliberately emit nothing.
	}
}

func writeConflictRun(out io.Writer, rows []MergeRow, la, lb, lc *LineArray, style int, labelA, labelO, labelB string) {
	fmt.Fprintf(out, "%s %s\n", diferenco.Sep1, labelA)
	for _, row := range rows {
		writeLine(out, la, row.LineA)
	}
	if style == diferenco.STYLE_DIFF3 || style == diferenco.STYLE_ZEALOUS_DIFF3 {
		fmt.Fprintf(out, "%s %s\n", diferenco.SepO, labelO)
		for _, row := range rows {
			writeLine(out, lc, row.LineC)
		}
	}
	fmt.Fprintf(out, "%s\n", diferenco.Sep2)
	for _, row := range rows {
		writeLine(out, lb, row.LineB)
	}
	fmt.Fprintf(out, "%s %s\n", diferenco.Sep3, labelB)
}
