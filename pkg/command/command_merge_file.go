package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mergetools/diff3/modules/diferenco"
	"github.com/mergetools/diff3/modules/diff3"
)

type MergeFile struct {
	Stdout        bool     `name:"stdout" short:"p" negatable:"" help:"Send results to standard output"`
	Fast          bool     `name:"fast" negatable:"" help:"Use the faster Synchrotron-style merge instead of the kdiff3-style three-way aligner"`
	Diff3         bool     `name:"diff3" negatable:"" help:"Use a diff3 based merge"`
	ZDiff3        bool     `name:"zdiff3" negatable:"" help:"Use a zealous diff3 based merge"`
	DiffAlgorithm string   `name:"diff-algorithm" help:"Choose a diff algorithm, supported: histogram|onp|myers|patience|minimal|dmp"`
	L             []string `name:":L" short:"L" help:"Set labels for file1/orig-file/file2"`
	F1            string   `arg:"" name:"0" help:"file1"`
	O             string   `arg:"" name:"1" help:"orig-file"`
	F2            string   `arg:"" name:"2" help:"file2"`
}

const (
	mergeFileSummaryFormat = `%smerge-file [<options>] [-L <name1> [-L <orig> [-L <name2>]]] <file1> <orig-file> <file2>`
)

func (c *MergeFile) Summary() string {
	return fmt.Sprintf(mergeFileSummaryFormat, W("Usage: "))
}

func (c *MergeFile) labels() (labelA, labelO, labelB string) {
	labelA, labelO, labelB = c.F1, c.O, c.F2
	if len(c.L) > 0 {
		labelA = c.L[0]
	}
	if len(c.L) > 1 {
		labelO = c.L[1]
	}
	if len(c.L) > 2 {
		labelB = c.L[2]
	}
	return
}

func readText(p string, textConv bool) (string, error) {
	fd, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer fd.Close()
	si, err := fd.Stat()
	if err != nil {
		return "", err
	}
	content, _, err := diferenco.ReadUnifiedText(fd, si.Size(), textConv)
	return content, err
}

// parseEqualityOptions turns -X key=value overrides (Globals.Values) into
// an EqualityOptions, so --fast's sibling three-way merge can opt into the
// same ignore-whitespace/case/numbers/comments knobs modules/diferenco's
// pairwise differ already exposes. Unknown keys and unparsable values are
// ignored rather than rejected, matching -L's equally permissive parsing.
func parseEqualityOptions(values []string) diferenco.EqualityOptions {
	var opts diferenco.EqualityOptions
	for _, kv := range values {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ignore_whitespace":
			opts.IgnoreWhitespace = b
		case "ignore_case":
			opts.IgnoreCase = b
		case "ignore_numbers":
			opts.IgnoreNumbers = b
		case "ignore_comments":
			opts.IgnoreComments = b
		case "ignore_trivial_matches":
			opts.IgnoreTrivialMatches = b
		}
	}
	return opts
}

func (c *MergeFile) style() int {
	switch {
	case c.Diff3:
		return diferenco.STYLE_DIFF3
	case c.ZDiff3:
		return diferenco.STYLE_ZEALOUS_DIFF3
	default:
		return diferenco.STYLE_DEFAULT
	}
}

// mergeFast runs the Synchrotron-style line-hash Merge, kept as an
// opt-in faster alternative to the kdiff3-style aligner below; it
// trades the triangular alignment/trim/fine-diff passes for a single
// pairwise-diff-driven merge, which is cheaper but less precise about
// which side a conflicting change actually came from.
func (c *MergeFile) mergeFast(g *Globals, textO, textA, textB string) (string, bool, error) {
	var a diferenco.Algorithm
	var err error
	if len(c.DiffAlgorithm) != 0 {
		if a, err = diferenco.AlgorithmFromName(c.DiffAlgorithm); err != nil {
			return "", false, fmt.Errorf("merge-file: parse diff-algorithm: %w", err)
		}
	}
	labelA, labelO, labelB := c.labels()
	g.DbgPrint("fast merge: algorithm %s conflict style %v", a, c.style())
	return diferenco.Merge(context.Background(), &diferenco.MergeOptions{
		TextO:  textO,
		TextA:  textA,
		TextB:  textB,
		LabelO: labelO,
		LabelA: labelA,
		LabelB: labelB,
		A:      a,
		Style:  c.style(),
	})
}

func (c *MergeFile) merge(g *Globals, textO, textA, textB string) (string, bool, error) {
	if c.Fast {
		return c.mergeFast(g, textO, textA, textB)
	}
	g.DbgPrint("three-way merge: conflict style %v", c.style())
	styleName := "merge"
	switch c.style() {
	case diferenco.STYLE_DIFF3:
		styleName = "diff3"
	case diferenco.STYLE_ZEALOUS_DIFF3:
		styleName = "zdiff3"
	}
	labelA, _, labelB := c.labels()
	opts := parseEqualityOptions(g.Values)
	return diff3.SimpleMergeWithOptions(context.Background(), textO, textA, textB, styleName, labelA, labelB, opts)
}

func (c *MergeFile) Run(g *Globals) error {
	textO, err := readText(c.O, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "merge-file: open <orig-file> error: %v\n", err)
		return &ExitCodeError{ExitCode: 2, Message: err.Error()}
	}
	textA, err := readText(c.F1, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "merge-file: open <file1> error: %v\n", err)
		return &ExitCodeError{ExitCode: 2, Message: err.Error()}
	}
	textB, err := readText(c.F2, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "merge-file: open <file2> error: %v\n", err)
		return &ExitCodeError{ExitCode: 2, Message: err.Error()}
	}

	mergedText, conflict, err := c.merge(g, textO, textA, textB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "merge-file: merge error: %v\n", err)
		return &ExitCodeError{ExitCode: 2, Message: err.Error()}
	}

	if c.Stdout {
		_, _ = io.WriteString(os.Stdout, mergedText)
	} else {
		if err := os.WriteFile(c.F1, []byte(mergedText), 0o644); err != nil {
			return &ExitCodeError{ExitCode: 2, Message: err.Error()}
		}
	}
	if conflict {
		return &ExitCodeError{ExitCode: 1, Message: "merge-file: conflict"}
	}
	return nil
}
