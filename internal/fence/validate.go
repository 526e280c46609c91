package fence

import "fmt"

// IssueKind identifies a fence structure problem
type IssueKind int

const (
	CloseWithoutOpen IssueKind = iota
	OpenWhileOpen
	UnclosedAtEOF
	MissingTag
)

func (k IssueKind) String() string {
	switch k {
	case CloseWithoutOpen:
		return "close without open"
	case OpenWhileOpen:
		return "open while already open"
	case UnclosedAtEOF:
		return "unclosed at end of file"
	case MissingTag:
		return "missing language tag"
	}
	return "unknown"
}

// Issue is a single problem found while scanning
type Issue struct {
	Line    int       // 1-based line the problem refers to
	Kind    IssueKind // What is wrong
	Depth   int       // Depth before the offending line
	Suggest string    // Inferred tag for MissingTag
}

func (i Issue) String() string {
	switch i.Kind {
	case OpenWhileOpen:
		return fmt.Sprintf("line %d: %s (depth was %d)", i.Line, i.Kind, i.Depth)
	case UnclosedAtEOF:
		return fmt.Sprintf("line %d: %s", i.Line, i.Kind)
	case MissingTag:
		return fmt.Sprintf("line %d: %s (suggest %q)", i.Line, i.Kind, i.Suggest)
	}
	return fmt.Sprintf("line %d: %s", i.Line, i.Kind)
}

// Validate scans lines and reports every fence problem.
// A nil result means the document is well formed.
func Validate(lines []string) []Issue {
	marks, end := Scan(lines)

	var issues []Issue
	depth := 0
	for _, m := range marks {
		switch m.Action {
		case StrayClose:
			issues = append(issues, Issue{Line: m.Line, Kind: CloseWithoutOpen, Depth: depth})
		case Reopen:
			issues = append(issues, Issue{Line: m.Line, Kind: OpenWhileOpen, Depth: depth})
		case Untagged:
			issues = append(issues, Issue{Line: m.Line, Kind: MissingTag, Depth: depth, Suggest: m.Tag})
		}
		depth = m.Depth
	}

	if end.Inside() {
		issues = append(issues, Issue{Line: end.OpenLine, Kind: UnclosedAtEOF, Depth: end.Depth})
	}
	return issues
}
