package fence

import (
	"reflect"
	"testing"
)

func TestPruneStandaloneTags(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []string
		removed []int
	}{
		{
			name:    "tag before a heading",
			input:   []string{"```bash", "ls", "```", "```bash", "", "## Next", "prose"},
			want:    []string{"```bash", "ls", "```", "", "## Next", "prose"},
			removed: []int{4},
		},
		{
			name:    "tag before a heading and a closed untagged block",
			input:   []string{"```bash", "ls", "```", "```markdown", "", "## Next", "", "```", "b", "```"},
			want:    []string{"```bash", "ls", "```", "", "## Next", "", "```", "b", "```"},
			removed: []int{4},
		},
		{
			name:    "tag before a prose paragraph",
			input:   []string{"```bash", "ls", "```", "```markdown", "", "Some prose.", "```python", "x", "```"},
			want:    []string{"```bash", "ls", "```", "", "Some prose.", "```python", "x", "```"},
			removed: []int{4},
		},
		{
			name:    "tag before another opener",
			input:   []string{"```bash", "ls", "```", "```bash", "```python", "x", "```"},
			want:    []string{"```bash", "ls", "```", "```python", "x", "```"},
			removed: []int{4},
		},
		{
			name:    "tag at end of file",
			input:   []string{"```bash", "ls", "```", "```json", ""},
			want:    []string{"```bash", "ls", "```", ""},
			removed: []int{4},
		},
		{
			name:  "code at end of file is kept",
			input: []string{"```bash", "ls", "```", "```json", `{"a": 1}`},
			want:  []string{"```bash", "ls", "```", "```json", `{"a": 1}`},
		},
		{
			name:  "code right under the tag is kept",
			input: []string{"```bash", "ls", "```", "```markdown", "prose", "```python", "x", "```"},
			want:  []string{"```bash", "ls", "```", "```markdown", "prose", "```python", "x", "```"},
		},
		{
			name:  "shell comment right under the tag is kept",
			input: []string{"```bash", "ls", "```", "```bash", "# install", "apt-get install jq"},
			want:  []string{"```bash", "ls", "```", "```bash", "# install", "apt-get install jq"},
		},
		{
			name:  "closed block is kept",
			input: []string{"```bash", "ls", "```", "```bash", "echo", "```"},
			want:  []string{"```bash", "ls", "```", "```bash", "echo", "```"},
		},
		{
			name:  "empty closed block is kept",
			input: []string{"```bash", "ls", "```", "```bash", "", "```"},
			want:  []string{"```bash", "ls", "```", "```bash", "", "```"},
		},
		{
			name:  "unknown tag is kept",
			input: []string{"```bash", "ls", "```", "```go"},
			want:  []string{"```bash", "ls", "```", "```go"},
		},
		{
			name:  "blank line between close and tag",
			input: []string{"```bash", "ls", "```", "", "```bash"},
			want:  []string{"```bash", "ls", "```", "", "```bash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changes := PruneStandaloneTags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}
			var removed []int
			for _, c := range changes {
				if c.Kind != StandaloneTagRemoved {
					t.Errorf("unexpected change kind %v", c.Kind)
				}
				removed = append(removed, c.Line)
			}
			if !reflect.DeepEqual(removed, tt.removed) {
				t.Errorf("removed = %v, want %v", removed, tt.removed)
			}
		})
	}
}

func TestNormalizeWithPruning(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []string
		changes []Change
	}{
		{
			name:  "tag before prose",
			input: []string{"```bash", "ls", "```", "```bash", "", "prose", "```python", "x", "```", "```", "y"},
			want:  []string{"```bash", "ls", "```", "", "prose", "```python", "x", "```", "y"},
			changes: []Change{
				{Line: 4, Kind: StandaloneTagRemoved, Before: "```bash"},
				{Line: 10, Kind: StrayRemoved, Before: "```"},
			},
		},
		{
			name:  "following untagged block survives",
			input: []string{"```bash", "ls", "```", "```markdown", "", "## Next", "", "```", "b", "```"},
			want:  []string{"```bash", "ls", "```", "", "## Next", "", "```text", "b", "```"},
			changes: []Change{
				{Line: 4, Kind: StandaloneTagRemoved, Before: "```markdown"},
				{Line: 8, Kind: TagInserted, Before: "```", After: "```text"},
			},
		},
		{
			name:  "unclosed code block is closed, not pruned",
			input: []string{"```bash", "ls", "```", "```json", `{"a": 1}`},
			want:  []string{"```bash", "ls", "```", "```json", `{"a": 1}`, "```"},
			changes: []Change{
				{Line: 6, Kind: CloseInserted, After: "```"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.input, Options{PruneStandaloneTags: true})
			if !reflect.DeepEqual(res.Lines, tt.want) {
				t.Errorf("lines = %q, want %q", res.Lines, tt.want)
			}
			if !reflect.DeepEqual(res.Changes, tt.changes) {
				t.Errorf("changes = %+v, want %+v", res.Changes, tt.changes)
			}
			if again := Normalize(res.Lines, Options{PruneStandaloneTags: true}); again.Changed() {
				t.Errorf("second pass changed %+v", again.Changes)
			}
		})
	}

	off := Normalize([]string{"```bash", "ls", "```", "```bash", "", "prose"}, Options{})
	if off.Count(StandaloneTagRemoved) != 0 {
		t.Errorf("pruning ran while disabled: %+v", off.Changes)
	}
}
