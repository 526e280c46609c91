package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrNotText is returned for files that are not UTF-8 text
var ErrNotText = errors.New("not a UTF-8 text file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a markdown file held in memory as lines
type Document struct {
	Path         string   // Source file path
	Lines        []string // Lines without the \n terminator (a trailing \r is kept)
	FinalNewline bool     // Whether the file ended with \n
	BOM          bool     // Whether the file started with a UTF-8 byte order mark
}

// Load reads a document from disk. Errors are not prefixed with the path;
// callers add it.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse splits raw file contents into a document
func Parse(path string, data []byte) (*Document, error) {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, ErrNotText
	}

	doc := &Document{Path: path}
	if bytes.HasPrefix(data, utf8BOM) {
		doc.BOM = true
		data = data[len(utf8BOM):]
	}
	if len(data) == 0 {
		return doc, nil
	}

	text := string(data)
	if strings.HasSuffix(text, "\n") {
		doc.FinalNewline = true
		text = text[:len(text)-1]
	}
	doc.Lines = strings.Split(text, "\n")
	return doc, nil
}

// Bytes renders the document back to file contents.
// An unmodified document renders to exactly the bytes it was parsed from.
func (d *Document) Bytes() []byte {
	var b bytes.Buffer
	if d.BOM {
		b.Write(utf8BOM)
	}
	b.WriteString(strings.Join(d.Lines, "\n"))
	if d.FinalNewline && len(d.Lines) > 0 {
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// WithLines returns a copy of the document holding different lines
func (d *Document) WithLines(lines []string) *Document {
	cp := *d
	cp.Lines = lines
	return &cp
}

// Save writes the document back to its path, keeping the file mode
func (d *Document) Save() error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.Path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(d.Path, d.Bytes(), mode)
}

// DefaultSkipDirs are directory names never descended into
var DefaultSkipDirs = []string{".git", ".hg", ".svn", "node_modules", "vendor"}

// DefaultExtensions are the file extensions treated as markdown
var DefaultExtensions = []string{".md", ".markdown"}

// Discover recursively finds markdown files under root.
// Directories whose name is in skipDirs are not descended into.
func Discover(root string, skipDirs, exts []string) ([]string, error) {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if hasExtension(path, exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
