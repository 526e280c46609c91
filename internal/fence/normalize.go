package fence

// ChangeKind identifies one kind of rewrite made by Normalize
type ChangeKind int

const (
	TagInserted ChangeKind = iota
	CloseInserted
	StrayRemoved
	StandaloneTagRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case TagInserted:
		return "tag inserted"
	case CloseInserted:
		return "close inserted"
	case StrayRemoved:
		return "stray close removed"
	case StandaloneTagRemoved:
		return "standalone tag removed"
	}
	return "unknown"
}

// Change records one rewrite. Line refers to the input lines; a close
// appended at end of input has Line == len(lines)+1.
type Change struct {
	Line   int
	Kind   ChangeKind
	Before string
	After  string
}

// Result is the output of a normalization pass
type Result struct {
	Lines   []string
	Changes []Change
}

// Changed reports whether any rewrite happened
func (r Result) Changed() bool {
	return len(r.Changes) > 0
}

// Count returns the number of changes of the given kind
func (r Result) Count(kind ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Options control optional normalization passes
type Options struct {
	PruneStandaloneTags bool
}

// Normalize closes every block, tags every opening fence and drops stray
// closes. Running it on its own output makes no changes.
func Normalize(lines []string, opts Options) Result {
	var changes []Change
	total := len(lines)
	var origin []int
	if opts.PruneStandaloneTags {
		var pruned []Change
		lines, pruned = PruneStandaloneTags(lines)
		changes = append(changes, pruned...)
		origin = originLines(total, pruned)
	}
	at := func(line int) int {
		if origin == nil {
			return line
		}
		return origin[line-1]
	}

	out := make([]string, 0, len(lines)+1)

	var state State
	for i, line := range lines {
		prev := state
		var m Mark
		state, m = Step(state, lines, i)

		switch m.Action {
		case Reopen:
			closing := closeLine(prev)
			out = append(out, closing, line)
			changes = append(changes, Change{Line: at(m.Line), Kind: CloseInserted, After: closing})
		case Untagged:
			indent, run := fenceRun(line)
			tagged := indent + run + m.Tag + carriageReturn(line)
			out = append(out, tagged)
			changes = append(changes, Change{Line: at(m.Line), Kind: TagInserted, Before: line, After: tagged})
		case StrayClose:
			changes = append(changes, Change{Line: at(m.Line), Kind: StrayRemoved, Before: line})
		default:
			out = append(out, line)
		}
	}

	if state.Inside() {
		closing := closeLine(state)
		out = append(out, closing)
		changes = append(changes, Change{Line: total + 1, Kind: CloseInserted, After: closing})
	}

	return Result{Lines: out, Changes: changes}
}

// originLines maps each line left after pruning to its 1-based input line
func originLines(total int, removed []Change) []int {
	skip := make(map[int]bool, len(removed))
	for _, c := range removed {
		skip[c.Line] = true
	}
	origin := make([]int, 0, total-len(removed))
	for line := 1; line <= total; line++ {
		if !skip[line] {
			origin = append(origin, line)
		}
	}
	return origin
}

// closeLine builds a bare fence matching the open fence's indentation, length and line ending
func closeLine(s State) string {
	line := s.Indent + s.Fence
	if s.CR {
		line += "\r"
	}
	return line
}

func carriageReturn(line string) string {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return "\r"
	}
	return ""
}
