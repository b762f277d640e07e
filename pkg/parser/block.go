package parser

import (
	"strings"
	"unicode"
)

// BlockState is the state of the block segmenter.
type BlockState int

const (
	// OutsideBlock skips lines until a marker is seen.
	OutsideBlock BlockState = iota
	// InsideBlock accepts data lines until the block closes.
	InsideBlock
)

func (s BlockState) String() string {
	if s == InsideBlock {
		return "inside"
	}
	return "outside"
}

// LineKind classifies a line for the segmenter.
type LineKind int

const (
	// KindData looks like a data row.
	KindData LineKind = iota
	// KindMarker contains DatasetMarker.
	KindMarker
	// KindBlank is empty after trimming.
	KindBlank
	// KindHeader is a bracketed log header without a field separator.
	KindHeader
	// KindNoSeparator has no field separator.
	KindNoSeparator
	// KindNotData has separators but its first field is not an identifier.
	KindNotData
)

var lineKindNames = map[LineKind]string{
	KindData:        "data",
	KindMarker:      "marker",
	KindBlank:       "blank",
	KindHeader:      "header",
	KindNoSeparator: "no-separator",
	KindNotData:     "not-data",
}

func (k LineKind) String() string {
	return lineKindNames[k]
}

// Classify returns the kind of line. A marker line is a marker even when it
// also looks like something else.
func Classify(line string) LineKind {
	if strings.Contains(line, DatasetMarker) {
		return KindMarker
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return KindBlank
	case !strings.Contains(trimmed, FieldSeparator):
		if strings.HasPrefix(trimmed, "[") {
			return KindHeader
		}
		return KindNoSeparator
	}

	first, _, _ := strings.Cut(trimmed, FieldSeparator)
	if !plausibleIdentifier(strings.TrimSpace(first)) {
		return KindNotData
	}
	return KindData
}

// plausibleIdentifier accepts a non-empty field that starts with a letter or
// digit and contains no brackets. Record ids, tank names and dates qualify;
// log headers such as "[01.05.25 00:30:39,746] ..." do not.
func plausibleIdentifier(field string) bool {
	if field == "" {
		return false
	}
	r := []rune(field)[0]
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return false
	}
	return !strings.ContainsAny(field, "[]")
}

// Transition returns the state after a line of the given kind and whether
// the line is accepted as a data line. A marker always (re)opens a block and
// is itself discarded; any other non-data kind closes an open block.
func Transition(state BlockState, kind LineKind) (BlockState, bool) {
	if kind == KindMarker {
		return InsideBlock, false
	}
	if state == OutsideBlock {
		return OutsideBlock, false
	}
	if kind != KindData {
		return OutsideBlock, false
	}
	return InsideBlock, true
}

// Segmenter feeds lines through the block state machine.
type Segmenter struct {
	state  BlockState
	blocks int
}

// Feed consumes one line and reports whether it is a data line.
func (s *Segmenter) Feed(line string) (LineKind, bool) {
	kind := Classify(line)
	next, accept := Transition(s.state, kind)
	if kind == KindMarker {
		s.blocks++
	}
	s.state = next
	return kind, accept
}

// State returns the current state.
func (s *Segmenter) State() BlockState {
	return s.state
}

// Blocks returns how many markers have been seen.
func (s *Segmenter) Blocks() int {
	return s.blocks
}
