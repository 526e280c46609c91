package fence

import (
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^\s{0,3}#{1,6}(\s|$)`)

// PruneStandaloneTags removes tag-only fence lines that were inserted as
// their own paragraph right after a closing fence.
//
// A candidate opens a block with a known tag on the line after a close. It is
// removed when it has no code content: nothing but blank lines follow it, the
// next non-blank line opens another tagged block, or the next non-blank line
// is a heading or prose set off by a blank line. A line directly under the
// tag is treated as code unless it is a "##" heading or later, and a block
// that a bare fence closes only loses its tag to a heading.
//
// The rule is a heuristic; callers enable it explicitly.
func PruneStandaloneTags(lines []string) ([]string, []Change) {
	marks, _ := Scan(lines)

	var changes []Change
	out := make([]string, 0, len(lines))
	for i, m := range marks {
		if isStandaloneTag(lines, marks, i) {
			changes = append(changes, Change{Line: m.Line, Kind: StandaloneTagRemoved, Before: lines[i]})
			continue
		}
		out = append(out, lines[i])
	}
	return out, changes
}

func isStandaloneTag(lines []string, marks []Mark, i int) bool {
	m := marks[i]
	if m.Action != Open || i == 0 || marks[i-1].Action != Close {
		return false
	}
	if !IsKnownTag(m.Tag) {
		return false
	}

	k := nextNonBlank(lines, i+1)
	if k < 0 {
		return true
	}
	if delim, tag := Classify(lines[k]); delim {
		return tag != ""
	}

	separated := k > i+1
	heading := isHeading(lines[k], separated)
	if j := nextFence(lines, i+1); j >= 0 && marks[j].Action == Close {
		return separated && heading
	}
	return separated || heading
}

// isHeading reports an ATX heading. Directly under a tag a single "#" reads
// as a shell comment, so only "##" and deeper count there.
func isHeading(line string, separated bool) bool {
	if !headingRe.MatchString(line) {
		return false
	}
	return separated || strings.HasPrefix(strings.TrimSpace(line), "##")
}

func nextNonBlank(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return -1
}
