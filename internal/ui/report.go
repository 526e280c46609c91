package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gubarz/mdfence/internal/batch"
	"github.com/gubarz/mdfence/internal/fence"
)

const ruleWidth = 60

// Reporter renders batch results for humans
type Reporter struct {
	out       io.Writer
	maxIssues int
}

// NewReporter creates a reporter printing at most maxIssues issues per file (0 = all)
func NewReporter(out io.Writer, maxIssues int) *Reporter {
	return &Reporter{out: out, maxIssues: maxIssues}
}

// Check prints invalid and unreadable files followed by totals
func (r *Reporter) Check(reports []batch.FileReport) batch.Summary {
	for _, rep := range reports {
		switch {
		case rep.Err != nil:
			fmt.Fprintf(r.out, "%s %s: %v\n", styles.Error.Render("!"), styles.Path.Render(rep.Path), rep.Err)
		case len(rep.Issues) > 0:
			fmt.Fprintf(r.out, "%s %s:\n", styles.Warn.Render("✗"), styles.Path.Render(rep.Path))
			r.issues(rep.Issues)
		}
	}

	s := batch.SummarizeCheck(reports)
	r.rule()
	fmt.Fprintf(r.out, "%s Valid files: %d\n", styles.OK.Render("✓"), s.Valid)
	fmt.Fprintf(r.out, "%s Invalid files: %d (%d issues)\n", styles.Warn.Render("✗"), s.Invalid, s.Issues)
	if s.Failed > 0 {
		fmt.Fprintf(r.out, "%s Unreadable files: %d\n", styles.Error.Render("!"), s.Failed)
	}
	if s.Invalid == 0 && s.Failed == 0 {
		fmt.Fprintln(r.out, styles.OK.Render("All code fences are balanced and tagged."))
	}
	return s
}

func (r *Reporter) issues(issues []fence.Issue) {
	shown := issues
	if r.maxIssues > 0 && len(shown) > r.maxIssues {
		shown = shown[:r.maxIssues]
	}
	for _, issue := range shown {
		fmt.Fprintf(r.out, "   %s\n", issue)
	}
	if rest := len(issues) - len(shown); rest > 0 {
		fmt.Fprintf(r.out, "   %s\n", styles.Dim.Render(fmt.Sprintf("... and %d more issues", rest)))
	}
}

// Fix prints changed and failed files followed by totals.
// With verbose set every change is listed.
func (r *Reporter) Fix(results []batch.FileResult, verbose bool) batch.Summary {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(r.out, "%s %s: %v\n", styles.Error.Render("!"), styles.Path.Render(res.Path), res.Err)
			continue
		}
		if !res.Result.Changed() {
			continue
		}
		fmt.Fprintf(r.out, "%s %s: %s\n", styles.OK.Render("✓"), styles.Path.Render(res.Path), describeChanges(res.Result))
		if verbose {
			for _, c := range res.Result.Changes {
				fmt.Fprintf(r.out, "   %s\n", RenderChange(c))
			}
		}
	}

	s := batch.SummarizeFix(results)
	r.rule()
	fmt.Fprintf(r.out, "Files changed: %d of %d\n", s.Changed, s.Files)
	for _, kind := range changeKinds {
		if n := s.Changes[kind]; n > 0 {
			fmt.Fprintf(r.out, "  %s: %d\n", totalLabels[kind], n)
		}
	}
	if s.Failed > 0 {
		fmt.Fprintf(r.out, "%s Errors: %d\n", styles.Error.Render("!"), s.Failed)
	}
	return s
}

// Languages prints a histogram of fenced block languages
func (r *Reporter) Languages(counts map[string]int, files int) {
	type row struct {
		lang  string
		count int
	}
	rows := make([]row, 0, len(counts))
	total := 0
	width := len("(untagged)")
	for lang, n := range counts {
		if lang == "" {
			lang = "(untagged)"
		}
		rows = append(rows, row{lang, n})
		total += n
		width = max(width, len(lang))
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].lang < rows[j].lang
	})

	for _, rw := range rows {
		fmt.Fprintf(r.out, "%-*s %6d\n", width, rw.lang, rw.count)
	}
	r.rule()
	fmt.Fprintf(r.out, "%d blocks in %d files\n", total, files)
}

func (r *Reporter) rule() {
	fmt.Fprintln(r.out, styles.Divider.Render(strings.Repeat("─", ruleWidth)))
}

var changeKinds = []fence.ChangeKind{
	fence.TagInserted,
	fence.CloseInserted,
	fence.StrayRemoved,
	fence.StandaloneTagRemoved,
}

var totalLabels = map[fence.ChangeKind]string{
	fence.TagInserted:          "Tags inserted",
	fence.CloseInserted:        "Closing fences inserted",
	fence.StrayRemoved:         "Stray closes removed",
	fence.StandaloneTagRemoved: "Standalone tags removed",
}

// describeChanges summarizes a result as "3 changes (1 tag inserted, 2 close inserted)"
func describeChanges(res fence.Result) string {
	var parts []string
	for _, kind := range changeKinds {
		if n := res.Count(kind); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	noun := "changes"
	if len(res.Changes) == 1 {
		noun = "change"
	}
	return fmt.Sprintf("%d %s (%s)", len(res.Changes), noun, strings.Join(parts, ", "))
}

// RenderChange formats one change as a line number plus a before/after diff
func RenderChange(c fence.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d: %s", c.Line, c.Kind)
	if c.Before != "" {
		b.WriteString("  ")
		b.WriteString(styles.Removed.Render("- " + strings.TrimRight(c.Before, "\r")))
	}
	if c.After != "" {
		b.WriteString("  ")
		b.WriteString(styles.Added.Render("+ " + strings.TrimRight(c.After, "\r")))
	}
	return b.String()
}
