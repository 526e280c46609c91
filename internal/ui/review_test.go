package ui

import (
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gubarz/mdfence/internal/batch"
	"github.com/gubarz/mdfence/internal/document"
)

// memProcessor returns a processor reading from and writing to files
func memProcessor(files map[string]string) *batch.Processor {
	return batch.NewProcessor().
		WithLoader(func(path string) (*document.Document, error) {
			data, ok := files[path]
			if !ok {
				return nil, os.ErrNotExist
			}
			return document.Parse(path, []byte(data))
		}).
		WithWriter(func(doc *document.Document) error {
			files[doc.Path] = string(doc.Bytes())
			return nil
		})
}

func reviewFixture() (map[string]string, reviewModel) {
	files := map[string]string{
		"docs/ok.md":      "```bash\nls\n```\n",
		"docs/install.md": "```\nnpm install\n```\n",
		"notes/todo.md":   "```yaml\nkind: Pod\n",
	}
	proc := memProcessor(files)
	paths := []string{"docs/install.md", "docs/ok.md", "missing.md", "notes/todo.md"}
	items := collectReviewItems(proc, paths, batch.FixOptions{})
	return files, newReviewModel(items, proc, batch.FixOptions{DryRun: true})
}

// send feeds msg to the model and runs any returned command once
func send(t *testing.T, m reviewModel, msg tea.Msg) (reviewModel, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(reviewModel)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestCollectReviewItems(t *testing.T) {
	_, m := reviewFixture()

	if len(m.items) != 3 {
		t.Fatalf("got %d items, want 3", len(m.items))
	}
	install := m.items[0]
	if install.path != "docs/install.md" || len(install.issues) != 1 || len(install.changes) != 1 {
		t.Errorf("install.md item = %+v", install)
	}
	if install.changes[0].After != "```bash" {
		t.Errorf("preview change = %+v", install.changes[0])
	}
	if m.items[1].path != "missing.md" || m.items[1].err == nil {
		t.Errorf("missing.md item = %+v", m.items[1])
	}
	if m.opts.DryRun {
		t.Error("review fixes must write")
	}
}

func TestReviewFixSelected(t *testing.T) {
	files, m := reviewFixture()

	m, msg := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.busy {
		t.Error("model should be busy while fixing")
	}
	done, ok := msg.(fixDoneMsg)
	if !ok {
		t.Fatalf("enter returned %T, want fixDoneMsg", msg)
	}

	m, _ = send(t, m, done)
	if m.busy || !m.items[0].fixed {
		t.Errorf("item not marked fixed: %+v", m.items[0])
	}
	if files["docs/install.md"] != "```bash\nnpm install\n```\n" {
		t.Errorf("install.md = %q", files["docs/install.md"])
	}
	if files["notes/todo.md"] != "```yaml\nkind: Pod\n" {
		t.Error("unselected file was modified")
	}
	if !strings.Contains(m.status, "fixed docs/install.md (1 changes)") {
		t.Errorf("status = %q", m.status)
	}
	if m.fixedCount() != 1 {
		t.Errorf("fixedCount() = %d", m.fixedCount())
	}
}

func TestReviewFixAll(t *testing.T) {
	files, m := reviewFixture()

	m, msg := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	done, ok := msg.(fixDoneMsg)
	if !ok {
		t.Fatalf("ctrl+r returned %T, want fixDoneMsg", msg)
	}
	if len(done.outcomes) != 2 {
		t.Fatalf("fixed %d files, want 2 (unreadable skipped)", len(done.outcomes))
	}

	m, _ = send(t, m, done)
	if files["notes/todo.md"] != "```yaml\nkind: Pod\n```\n" {
		t.Errorf("todo.md = %q", files["notes/todo.md"])
	}
	if m.fixedCount() != 2 || m.status != "fixed 2 files, 0 failed" {
		t.Errorf("fixedCount() = %d, status = %q", m.fixedCount(), m.status)
	}

	// Nothing left to fix
	if _, msg := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR}); msg != nil {
		t.Errorf("second ctrl+r returned %T", msg)
	}
}

func TestReviewNavigationAndFilter(t *testing.T) {
	_, m := reviewFixture()

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want clamped to 2", m.cursor)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyHome})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after home", m.cursor)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("notes")})
	m = next.(reviewModel)
	m, _ = send(t, m, filterMsg{})
	if len(m.filtered) != 1 || m.items[m.filtered[0]].path != "notes/todo.md" {
		t.Errorf("filtered = %v", m.filtered)
	}
	if idx, ok := m.current(); !ok || m.items[idx].path != "notes/todo.md" {
		t.Errorf("current() = %d, %v", idx, ok)
	}
}

func TestReviewQuit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, m := reviewFixture()
		m, msg := send(t, m, tea.KeyMsg{Type: key})
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Errorf("%v returned %T, want tea.QuitMsg", key, msg)
		}
		if !m.quitting || m.View() != "" {
			t.Errorf("%v: model not quitting", key)
		}
	}
}

func TestReviewView(t *testing.T) {
	_, m := reviewFixture()
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	for _, want := range []string{
		"docs/install.md",
		"line 1: missing language tag",
		"+ ```bash",
		"missing.md",
		"3/3",
		"Ctrl+R fix all",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := strings.Count(view, "\n") + 1; got != 30 {
		t.Errorf("view has %d lines, want 30", got)
	}
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name                  string
		cursor, total, height int
		offset                int
		wantStart, wantEnd    int
	}{
		{"fits", 2, 5, 10, 0, 0, 5},
		{"scroll down", 12, 20, 5, 0, 8, 13},
		{"scroll up", 1, 20, 5, 8, 1, 6},
		{"clamped", 19, 20, 5, 30, 15, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := tt.offset
			start, end := scrollWindow(tt.cursor, tt.total, tt.height, &offset)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("scrollWindow() = %d, %d, want %d, %d", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"docs/very/long/path.md", 10, "docs/ve..."},
		{"abc", 2, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
