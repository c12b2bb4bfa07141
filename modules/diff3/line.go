// Package diff3 implements the KDiff3-style three-way line aligner and
// merge engine: two pairwise diffs (A↔B, A↔C) are fused with a refining
// B↔C pass into one synchronized Diff3LineList, trimmed to repair
// triangular inconsistencies, fine-diffed at the character level, and
// resolved into a merged text with conflict markers.
//
// The pairwise differ itself lives in modules/diferenco (GnuMyersLines);
// this package owns everything upstream of "I have two DiffLists" and
// downstream of "I have a Diff3LineList".
package diff3

import (
	"strings"
)

// LineEnding records which terminator bytes followed a line in the
// original input, so the emitter can write them back verbatim instead
// of normalizing every line to "\n".
type LineEnding int

const (
	// EndingNone marks a line with no terminator at all: only possible
	// for the last line of an input that doesn't end in a newline.
	EndingNone LineEnding = iota
	EndingLF              // "\n"
	EndingCRLF            // "\r\n"
	EndingCR              // "\r" alone, old-Mac style
)

// Bytes returns the literal terminator this ending represents.
func (e LineEnding) Bytes() string {
	switch e {
	case EndingLF:
		return "\n"
	case EndingCRLF:
		return "\r\n"
	case EndingCR:
		return "\r"
	default:
		return ""
	}
}

// Line is an immutable view into a shared text buffer: a single line's
// span plus classification flags computed once at ingest.
type Line struct {
	Text            string
	Ending          LineEnding
	FirstNonWhite   int // byte offset of first non-whitespace char, or len(Text)
	PureComment     bool
	Skippable       bool // PureComment or entirely whitespace
	EndsOpenComment bool // true if a block comment begun on this line does not close
}

func (l Line) whiteLine() bool { return l.FirstNonWhite >= len(l.Text) }

// LineArray is the ingest product for one side of a comparison: an
// ordered, append-only slice of Lines sharing the original text.
type LineArray struct {
	Lines []Line
	// MixedEndings reports whether two or more distinct line-ending
	// styles were found among terminated lines of this input (a file's
	// last line lacking any terminator doesn't count as a mix).
	MixedEndings bool
}

// commentScanState is the scanner's persistent state across lines,
// grounded on kdiff3's SourceData::FileData::removeComments /
// checkLineForComments (src-QT4/diff.cpp).
type commentScanState struct {
	withinBlockComment bool
}

// scanLine classifies one line's comment/string content, optionally
// erasing non-pure inline comments from the text the differ sees while
// leaving the original text (returned separately) untouched. This is
// the Go port of checkLineForComments: a small character-by-character
// state machine with states {Code, SingleString, DoubleString,
// LineComment, BlockComment}.
func (st *commentScanState) scanLine(raw string, stripComments bool) (diffText string, flags Line) {
	flags.Text = raw
	b := []byte(raw)
	n := len(b)
	white := true
	commentInLine := false
	commentStart := -1

	i := 0
	if st.withinBlockComment {
		commentStart = 0
		commentInLine = true
		for i < n {
			if i+1 < n && b[i] == '*' && b[i+1] == '/' {
				i += 2
				st.withinBlockComment = false
				break
			}
			i++
		}
		if st.withinBlockComment {
			// whole line still inside the comment
			if !white {
				blankOut(b, commentStart, n)
			}
			flags.PureComment = true
			flags.Skippable = true
			flags.FirstNonWhite = n
			flags.EndsOpenComment = true
			if stripComments {
				diffText = string(b)
			} else {
				diffText = raw
			}
			return diffText, flags
		}
	}

	for i < n {
		switch {
		case b[i] == '\'':
			white = false
			i++
			for i < n && b[i] != '\'' {
				i++
			}
			if i < n {
				i++
			}
		case b[i] == '"':
			white = false
			i++
			for i < n && !(b[i] == '"' && b[i-1] != '\\') {
				i++
			}
			if i < n {
				i++
			}
		case b[i] == '/' && i+1 < n && b[i+1] == '/':
			commentStart = i
			commentInLine = true
			i = n
		case b[i] == '/' && i+1 < n && b[i+1] == '*':
			start := i
			commentInLine = true
			i += 2
			closed := false
			for i < n {
				if i+1 < n && b[i] == '*' && b[i+1] == '/' {
					i += 2
					closed = true
					break
				}
				i++
			}
			if !closed {
				st.withinBlockComment = true
				commentStart = start
				i = n
			} else if commentStart < 0 {
				commentStart = start
			}
		default:
			if b[i] != ' ' && b[i] != '\t' && b[i] != '\r' {
				white = false
			}
			i++
		}
	}

	if commentInLine && !white && commentStart >= 0 {
		blankOut(b, commentStart, n)
	}

	flags.PureComment = commentInLine && white
	flags.Skippable = flags.PureComment || white
	flags.EndsOpenComment = st.withinBlockComment
	trimmed := strings.TrimLeft(raw, " \t\r")
	flags.FirstNonWhite = len(raw) - len(trimmed)
	if flags.PureComment || white {
		flags.FirstNonWhite = len(raw)
	}

	if stripComments && commentInLine && !white {
		diffText = string(b)
	} else {
		diffText = raw
	}
	return diffText, flags
}

func blankOut(b []byte, start, end int) {
	for i := start; i < end && i < len(b); i++ {
		b[i] = ' '
	}
}

// splitLine returns the line starting at start (without its terminator),
// which style of terminator ended it, and the offset of the next line.
// Recognizes LF, CRLF, and bare-CR uniformly, the way an old-Mac file
// (CR only, no LF anywhere) still needs to split into multiple lines
// rather than being read back as one.
func splitLine(text string, start int) (raw string, ending LineEnding, next int) {
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '\n':
			return text[start:i], EndingLF, i + 1
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				return text[start:i], EndingCRLF, i + 2
			}
			return text[start:i], EndingCR, i + 1
		}
	}
	return text[start:], EndingNone, len(text)
}

// Ingest splits text into a LineArray, running the comment scanner over
// every line when stripComments is set. Each line's original terminator
// is recorded on it (Line.Ending) rather than folded into Line.Text, and
// LineArray.MixedEndings is set if more than one terminator style was
// used across the input.
func Ingest(text string, stripComments bool) *LineArray {
	la := &LineArray{}
	if text == "" {
		return la
	}
	var st commentScanState
	seenEnding := EndingNone
	start := 0
	for start < len(text) {
		raw, ending, next := splitLine(text, start)
		start = next
		_, flags := st.scanLine(raw, stripComments)
		flags.Ending = ending
		if ending != EndingNone {
			if seenEnding == EndingNone {
				seenEnding = ending
			} else if ending != seenEnding {
				la.MixedEndings = true
			}
		}
		la.Lines = append(la.Lines, flags)
	}
	return la
}

// DiffText returns the version of a line's text the pairwise differ
// should compare: comments are blanked out when ignoreComments is set.
func (la *LineArray) DiffText(i int, ignoreComments bool) string {
	if i < 0 || i >= len(la.Lines) {
		return ""
	}
	if !ignoreComments {
		return la.Lines[i].Text
	}
	var st commentScanState
	diffText, _ := st.scanLine(la.Lines[i].Text, true)
	return diffText
}
