package batch

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gubarz/mdfence/internal/document"
	"github.com/gubarz/mdfence/internal/fence"
)

// ============================================================================
// Loader / Writer
// ============================================================================

// Loader reads documents; swapped in tests
type Loader func(path string) (*document.Document, error)

// Writer persists documents; swapped in tests
type Writer func(doc *document.Document) error

func saveDocument(doc *document.Document) error {
	return doc.Save()
}

// ============================================================================
// Reports
// ============================================================================

// FileReport is the validation outcome for one file
type FileReport struct {
	Path   string
	Issues []fence.Issue
	Err    error // Read or decode failure; Issues is empty when set
}

// Valid reports whether the file was read and has no issues
func (r FileReport) Valid() bool {
	return r.Err == nil && len(r.Issues) == 0
}

// FileResult is the fix outcome for one file
type FileResult struct {
	Path    string
	Result  fence.Result
	Written bool  // Whether the file was rewritten
	Err     error // Read, decode or write failure
}

// FixOptions control a fix run
type FixOptions struct {
	PruneTags bool // Remove standalone tag lines before normalizing
	DryRun    bool // Compute changes without writing
}

// ============================================================================
// Processor
// ============================================================================

// Processor runs validation and fixing over files
type Processor struct {
	load  Loader
	write Writer
}

// NewProcessor creates a processor backed by the file system
func NewProcessor() *Processor {
	return &Processor{
		load:  document.Load,
		write: saveDocument,
	}
}

// WithLoader sets a custom loader (useful for testing)
func (p *Processor) WithLoader(l Loader) *Processor {
	p.load = l
	return p
}

// WithWriter sets a custom writer (useful for testing)
func (p *Processor) WithWriter(w Writer) *Processor {
	p.write = w
	return p
}

// CheckFile validates a single file; errors are returned, not recorded
func (p *Processor) CheckFile(path string) (FileReport, error) {
	doc, err := p.load(path)
	if err != nil {
		return FileReport{Path: path}, fmt.Errorf("read %s: %w", path, err)
	}
	issues := fence.Validate(doc.Lines)
	log.Debug().Str("file", path).Int("issues", len(issues)).Msg("checked")
	return FileReport{Path: path, Issues: issues}, nil
}

// Check validates every file. A file that cannot be read is logged and
// recorded on its report; the remaining files are still checked.
func (p *Processor) Check(paths []string) []FileReport {
	reports := make([]FileReport, 0, len(paths))
	for _, path := range paths {
		report, err := p.CheckFile(path)
		if err != nil {
			log.Err(err).Str("file", path).Msg("failed to check")
			report.Err = err
		}
		reports = append(reports, report)
	}
	return reports
}

// FixFile normalizes a single file and writes it back when it changed
func (p *Processor) FixFile(path string, opts FixOptions) (FileResult, error) {
	out := FileResult{Path: path}

	doc, err := p.load(path)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", path, err)
	}

	out.Result = fence.Normalize(doc.Lines, fence.Options{PruneStandaloneTags: opts.PruneTags})
	if !out.Result.Changed() || opts.DryRun {
		log.Debug().Str("file", path).Int("changes", len(out.Result.Changes)).Bool("dry_run", opts.DryRun).Msg("fixed")
		return out, nil
	}

	if err := p.write(doc.WithLines(out.Result.Lines)); err != nil {
		return out, fmt.Errorf("write %s: %w", path, err)
	}
	out.Written = true
	log.Debug().Str("file", path).Int("changes", len(out.Result.Changes)).Msg("fixed")
	return out, nil
}

// Fix normalizes every file. Failures are logged and recorded per file.
func (p *Processor) Fix(paths []string, opts FixOptions) []FileResult {
	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		res, err := p.FixFile(path, opts)
		if err != nil {
			log.Err(err).Str("file", path).Msg("failed to fix")
			res.Err = err
		}
		results = append(results, res)
	}
	return results
}

// ============================================================================
// Summary
// ============================================================================

// Summary aggregates a batch run
type Summary struct {
	Files   int
	Valid   int
	Invalid int
	Changed int
	Failed  int
	Issues  int
	Changes map[fence.ChangeKind]int
}

// SummarizeCheck aggregates check reports
func SummarizeCheck(reports []FileReport) Summary {
	s := Summary{Files: len(reports)}
	for _, r := range reports {
		switch {
		case r.Err != nil:
			s.Failed++
		case len(r.Issues) > 0:
			s.Invalid++
			s.Issues += len(r.Issues)
		default:
			s.Valid++
		}
	}
	return s
}

// SummarizeFix aggregates fix results
func SummarizeFix(results []FileResult) Summary {
	s := Summary{Files: len(results), Changes: make(map[fence.ChangeKind]int)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		if r.Result.Changed() {
			s.Changed++
		}
		for _, c := range r.Result.Changes {
			s.Changes[c.Kind]++
		}
	}
	return s
}

// TotalChanges returns the number of changes across all kinds
func (s Summary) TotalChanges() int {
	n := 0
	for _, c := range s.Changes {
		n += c
	}
	return n
}
