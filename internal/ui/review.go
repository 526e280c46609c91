package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/mdfence/internal/batch"
	"github.com/gubarz/mdfence/internal/fence"
)

// ============================================================================
// String Builder Pool - reduces GC pressure from rendering
// ============================================================================

var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func getBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putBuilder(b *strings.Builder) {
	if b.Cap() < 64*1024 { // Don't pool huge builders
		builderPool.Put(b)
	}
}

// ============================================================================
// Review Item
// ============================================================================

// reviewItem is one file needing attention
type reviewItem struct {
	path    string
	issues  []fence.Issue
	changes []fence.Change // What a fix would do
	fixed   bool
	err     error
}

// collectReviewItems checks every path and previews the fix for files with
// issues. Valid files are left out.
func collectReviewItems(proc *batch.Processor, paths []string, opts batch.FixOptions) []reviewItem {
	preview := opts
	preview.DryRun = true

	var items []reviewItem
	for _, rep := range proc.Check(paths) {
		if rep.Valid() {
			continue
		}
		item := reviewItem{path: rep.Path, issues: rep.Issues, err: rep.Err}
		if rep.Err == nil {
			res, err := proc.FixFile(rep.Path, preview)
			item.changes = res.Result.Changes
			item.err = err
		}
		items = append(items, item)
	}
	return items
}

// status returns the list marker for an item
func (item reviewItem) status() string {
	switch {
	case item.err != nil:
		return styles.Error.Render("!")
	case item.fixed:
		return styles.OK.Render("✓")
	default:
		return styles.Warn.Render("✗")
	}
}

// ============================================================================
// Messages
// ============================================================================

// filterMsg triggers filtering after debounce
type filterMsg struct{}

// debounceFilter returns a command that triggers filtering after a delay
func debounceFilter() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return filterMsg{}
	})
}

// fixOutcome is the result of fixing one item
type fixOutcome struct {
	index   int
	changes int
	issues  []fence.Issue // Remaining after the fix
	err     error
}

// fixDoneMsg reports finished fixes back to the model
type fixDoneMsg struct {
	outcomes []fixOutcome
}

// ============================================================================
// Review Model
// ============================================================================

// reviewModel lists files with fence problems and fixes them on demand
type reviewModel struct {
	width     int
	height    int
	textInput textinput.Model
	quitting  bool

	items    []reviewItem
	filtered []int // Indexes into items
	cursor   int
	offset   int
	busy     bool
	status   string

	proc *batch.Processor
	opts batch.FixOptions
}

func newReviewModel(items []reviewItem, proc *batch.Processor, opts batch.FixOptions) reviewModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter files..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	opts.DryRun = false
	m := reviewModel{
		items:     items,
		textInput: ti,
		proc:      proc,
		opts:      opts,
	}
	m.filterItems()
	return m
}

// Init implements tea.Model
func (m reviewModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	case filterMsg:
		m.filterItems()
		return m, nil
	case fixDoneMsg:
		m.applyOutcomes(msg.outcomes)
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounceFilter())
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes navigation and fix keys; other keys go to the filter input
func (m *reviewModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit, true
	case "enter":
		if idx, ok := m.current(); ok && !m.busy && !m.items[idx].fixed {
			m.busy = true
			m.status = "fixing " + m.items[idx].path
			return m.fixCmd([]int{idx}), true
		}
		return nil, true
	case "ctrl+r":
		var pending []int
		for i, item := range m.items {
			if !item.fixed && item.err == nil {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 || m.busy {
			return nil, true
		}
		m.busy = true
		m.status = fmt.Sprintf("fixing %d files", len(pending))
		return m.fixCmd(pending), true
	case "up", "ctrl+p":
		m.moveCursor(-1)
	case "down", "ctrl+n":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-10)
	case "pgdown":
		m.moveCursor(10)
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = max(0, len(m.filtered)-1)
	default:
		return nil, false
	}
	return nil, true
}

// fixCmd fixes the given items in order and reports once all are done
func (m reviewModel) fixCmd(indexes []int) tea.Cmd {
	proc, opts := m.proc, m.opts
	paths := make([]string, len(indexes))
	for i, idx := range indexes {
		paths[i] = m.items[idx].path
	}

	return func() tea.Msg {
		outcomes := make([]fixOutcome, 0, len(indexes))
		for i, idx := range indexes {
			out := fixOutcome{index: idx}
			res, err := proc.FixFile(paths[i], opts)
			if err != nil {
				out.err = err
				outcomes = append(outcomes, out)
				continue
			}
			out.changes = len(res.Result.Changes)
			rep, err := proc.CheckFile(paths[i])
			out.issues, out.err = rep.Issues, err
			outcomes = append(outcomes, out)
		}
		return fixDoneMsg{outcomes: outcomes}
	}
}

// applyOutcomes records fix results on the items
func (m *reviewModel) applyOutcomes(outcomes []fixOutcome) {
	m.busy = false
	fixed, failed := 0, 0
	for _, out := range outcomes {
		item := &m.items[out.index]
		item.err = out.err
		if out.err != nil {
			failed++
			continue
		}
		item.issues = out.issues
		item.fixed = len(out.issues) == 0
		if item.fixed {
			item.changes = nil
			fixed++
		}
	}

	switch {
	case len(outcomes) == 1 && failed == 1:
		m.status = fmt.Sprintf("failed: %v", outcomes[0].err)
	case len(outcomes) == 1:
		m.status = fmt.Sprintf("fixed %s (%d changes)", m.items[outcomes[0].index].path, outcomes[0].changes)
	default:
		m.status = fmt.Sprintf("fixed %d files, %d failed", fixed, failed)
	}
}

// current returns the item index under the cursor
func (m reviewModel) current() (int, bool) {
	if m.cursor < len(m.filtered) {
		return m.filtered[m.cursor], true
	}
	return 0, false
}

// moveCursor moves the cursor by delta, clamping to valid range
func (m *reviewModel) moveCursor(delta int) {
	m.cursor += delta
	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
}

// filterItems keeps items whose path contains every query word
func (m *reviewModel) filterItems() {
	words := strings.Fields(strings.ToLower(m.textInput.Value()))
	m.filtered = make([]int, 0, len(m.items))
	for i, item := range m.items {
		if matchesAllWords(strings.ToLower(item.path), words) {
			m.filtered = append(m.filtered, i)
		}
	}
	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.offset = 0
}

// fixedCount returns how many items were fixed during the session
func (m reviewModel) fixedCount() int {
	n := 0
	for _, item := range m.items {
		if item.fixed {
			n++
		}
	}
	return n
}

// ============================================================================
// Rendering
// ============================================================================

const previewLines = 10

// View implements tea.Model
func (m reviewModel) View() string {
	if m.quitting {
		return ""
	}

	width := max(m.width, 80)
	height := max(m.height, 24)

	preview := m.renderPreview(width)
	previewRows := strings.Count(preview, "\n")
	inputLines := 3 // divider + info + input
	listHeight := max(height-previewRows-inputLines, 3)
	list := m.renderList(listHeight, width)
	padding := max(height-previewRows-strings.Count(list, "\n")-inputLines, 0)

	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(preview)
	b.WriteString(list)
	b.WriteString(strings.Repeat("\n", padding))
	b.WriteString(m.renderInput(width))
	return b.String()
}

// renderPreview shows the selected file's issues and pending changes
func (m reviewModel) renderPreview(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	lines := 0

	if idx, ok := m.current(); ok {
		item := m.items[idx]
		b.WriteString(styles.Path.Render(truncateString(item.path, width)))
		b.WriteString("\n")
		lines++

		var body []string
		switch {
		case item.err != nil:
			body = append(body, styles.Error.Render(item.err.Error()))
		case item.fixed:
			body = append(body, styles.OK.Render("fixed"))
		default:
			for _, issue := range item.issues {
				body = append(body, styles.Warn.Render(issue.String()))
			}
			for _, c := range item.changes {
				body = append(body, RenderChange(c))
			}
		}

		for i, line := range body {
			if lines == previewLines-1 && i < len(body)-1 {
				b.WriteString(styles.Dim.Render(fmt.Sprintf("... %d more", len(body)-i)))
				b.WriteString("\n")
				lines++
				break
			}
			b.WriteString(line)
			b.WriteString("\n")
			lines++
		}
	}

	for lines < previewLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	return b.String()
}

// renderList renders the scrollable file list
func (m *reviewModel) renderList(maxHeight, width int) string {
	if len(m.filtered) == 0 {
		return ""
	}

	start, end := scrollWindow(m.cursor, len(m.filtered), maxHeight, &m.offset)

	b := getBuilder()
	defer putBuilder(b)
	for i := start; i < end; i++ {
		item := m.items[m.filtered[i]]
		detail := fmt.Sprintf("%d issues", len(item.issues))
		if item.fixed {
			detail = "fixed"
		}
		path := truncateString(item.path, width-len(detail)-6)
		if i == m.cursor {
			b.WriteString(styles.Cursor.Render("> "))
			b.WriteString(item.status() + " ")
			b.WriteString(styles.WithSelection(lipgloss.NewStyle()).Render(path))
			b.WriteString("  " + styles.WithSelection(styles.Dim).Render(detail))
		} else {
			b.WriteString("  ")
			fmt.Fprintf(b, "%s %s  %s", item.status(), path, styles.Dim.Render(detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderInput renders the input section at the bottom
func (m reviewModel) renderInput(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d/%d", len(m.filtered), len(m.items))))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Enter fix"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Ctrl+R fix all"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("ESC exit"))
	if m.status != "" {
		b.WriteString("  ")
		b.WriteString(styles.Bold.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// ============================================================================
// Run Review
// ============================================================================

// getTTY returns file handles for TUI input/output
// Uses /dev/tty to bypass shell pipes and command substitution
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	// If stdout is piped, draw on the terminal directly
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr // Last resort fallback
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// RunReview checks paths and opens the interactive review for files with
// problems. A short summary is written to out once the TUI exits.
func RunReview(out io.Writer, proc *batch.Processor, paths []string, opts batch.FixOptions) error {
	items := collectReviewItems(proc, paths, opts)
	if len(items) == 0 {
		fmt.Fprintln(out, styles.OK.Render("All code fences are balanced and tagged."))
		return nil
	}

	m := newReviewModel(items, proc, opts)

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // Refresh after getTTY sets up the renderer
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	finalModel, err := p.Run()
	cleanup()
	if err != nil {
		return err
	}

	result := finalModel.(reviewModel)
	fmt.Fprintf(out, "Fixed %d of %d files\n", result.fixedCount(), len(result.items))
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// scrollWindow calculates the visible range for a scrollable list
func scrollWindow(cursor, total, height int, offset *int) (start, end int) {
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}
	maxOffset := max(0, total-height)
	*offset = clamp(*offset, 0, maxOffset)

	start = *offset
	end = min(start+height, total)
	return
}

// truncateString truncates a string to maxLen with ellipsis
func truncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// matchesAllWords checks if text contains all words
func matchesAllWords(text string, words []string) bool {
	for _, word := range words {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}
