package fence

import (
	"strings"
)

// Marker is the opening/closing delimiter of a fenced code block
const Marker = "```"

// State tracks the scan position relative to fenced blocks.
// The zero value is outside any block.
type State struct {
	Depth    int    // Open, unclosed fences (0 or 1)
	Tag      string // Language tag of the open block
	OpenLine int    // 1-based line of the open fence
	Indent   string // Leading whitespace of the open fence
	Fence    string // Backtick run of the open fence
	CR       bool   // Open fence line ended with \r
}

// Inside reports whether the state is within a fenced block
func (s State) Inside() bool {
	return s.Depth > 0
}

// Action classifies what a single line did to the scan state
type Action int

const (
	Content    Action = iota // Not a fence line
	Open                     // Tagged fence outside a block
	Close                    // Bare fence inside a block
	Reopen                   // Tagged fence inside a block (prior block left open)
	Untagged                 // Bare fence outside a block that opens one without a tag
	StrayClose               // Bare fence outside a block with nothing to close
)

func (a Action) String() string {
	switch a {
	case Content:
		return "content"
	case Open:
		return "open"
	case Close:
		return "close"
	case Reopen:
		return "reopen"
	case Untagged:
		return "untagged"
	case StrayClose:
		return "stray-close"
	}
	return "unknown"
}

// Mark is the scan result for one line
type Mark struct {
	Line      int    // 1-based line number
	Action    Action // What the line did
	Tag       string // Tag of the block opened here (inferred for Untagged)
	Depth     int    // Depth after this line
	Delimiter bool   // Whether the line is a fence line
}

// Opening reports whether the line opens a block
func (m Mark) Opening() bool {
	return m.Action == Open || m.Action == Reopen || m.Action == Untagged
}

// Closing reports whether the line closes a block
func (m Mark) Closing() bool {
	return m.Action == Close
}

// Classify reports whether line is a fence delimiter and returns its tag.
// A bare delimiter has an empty tag. Fences longer than the marker are
// delimiters too; the whole backtick run is excluded from the tag.
func Classify(line string) (delim bool, tag string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, Marker) {
		return false, ""
	}
	return true, strings.TrimSpace(strings.TrimLeft(trimmed, "`"))
}

// Step advances state over lines[i]. Bare fences outside a block look ahead
// to the next fence line to decide between an untagged opening and a stray close.
func Step(s State, lines []string, i int) (State, Mark) {
	line := lines[i]
	mark := Mark{Line: i + 1}

	delim, tag := Classify(line)
	if !delim {
		mark.Action = Content
		mark.Depth = s.Depth
		return s, mark
	}
	mark.Delimiter = true

	switch {
	case tag != "" && s.Inside():
		mark.Action = Reopen
		s = opened(line, i, tag)
	case tag != "":
		mark.Action = Open
		s = opened(line, i, tag)
	case s.Inside():
		mark.Action = Close
		s = State{}
	default:
		j := nextFence(lines, i+1)
		if j < 0 {
			mark.Action = StrayClose
			break
		}
		if _, nextTag := Classify(lines[j]); nextTag != "" {
			mark.Action = StrayClose
			break
		}
		tag = InferLanguage(strings.Join(lines[i+1:j], "\n"))
		mark.Action = Untagged
		s = opened(line, i, tag)
	}

	mark.Tag = s.Tag
	if mark.Action == Close || mark.Action == StrayClose {
		mark.Tag = ""
	}
	mark.Depth = s.Depth
	return s, mark
}

func opened(line string, i int, tag string) State {
	indent, run := fenceRun(line)
	return State{
		Depth:    1,
		Tag:      tag,
		OpenLine: i + 1,
		Indent:   indent,
		Fence:    run,
		CR:       strings.HasSuffix(line, "\r"),
	}
}

// Scan runs Step over every line starting outside any block.
// It returns one mark per line and the state at end of input.
func Scan(lines []string) ([]Mark, State) {
	marks := make([]Mark, 0, len(lines))
	var s State
	for i := range lines {
		var m Mark
		s, m = Step(s, lines, i)
		marks = append(marks, m)
	}
	return marks, s
}

// nextFence returns the index of the first fence line at or after from, or -1
func nextFence(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if delim, _ := Classify(lines[j]); delim {
			return j
		}
	}
	return -1
}

// fenceRun splits a fence line into its indentation and backtick run
func fenceRun(line string) (indent, run string) {
	rest := strings.TrimLeft(line, " \t")
	indent = line[:len(line)-len(rest)]
	run = rest[:len(rest)-len(strings.TrimLeft(rest, "`"))]
	return indent, run
}
