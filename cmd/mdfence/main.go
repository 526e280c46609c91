package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gubarz/mdfence/internal/batch"
	"github.com/gubarz/mdfence/internal/config"
	"github.com/gubarz/mdfence/internal/document"
	"github.com/gubarz/mdfence/internal/ui"
)

var version = "0.1.0"

var (
	// errIssuesFound makes check exit 1 when documents have fence problems
	errIssuesFound = errors.New("fence issues found")
	// errFilesFailed makes a batch command exit 1 when some files could not be processed
	errFilesFailed = errors.New("some files could not be processed")
)

var rootCmd = &cobra.Command{
	Use:   "mdfence",
	Short: "Validate and repair Markdown code fences",
	Long: `Checks that every fenced code block in your Markdown files is
opened with a language tag and properly closed, and repairs the
ones that are not.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

var checkCmd = &cobra.Command{
	Use:     "check [path]",
	Aliases: []string{"validate"},
	Short:   "Report unbalanced or untagged fences",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runCheck,
}

var fixCmd = &cobra.Command{
	Use:   "fix [path]",
	Short: "Rewrite files so every fence is tagged and closed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFix,
}

var reviewCmd = &cobra.Command{
	Use:   "review [path]",
	Short: "Browse files with fence problems and fix them interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReview,
}

var langsCmd = &cobra.Command{
	Use:   "langs [path]",
	Short: "Count fenced code blocks per language",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLangs,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(checkCmd, fixCmd, reviewCmd, langsCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	checkCmd.Flags().Int("max-issues", config.DefaultMaxIssues, "Issues shown per file (0 = all)")

	fixCmd.Flags().Bool("prune-tags", false, "Remove standalone tag lines left behind after a block")
	fixCmd.Flags().BoolP("dry-run", "n", false, "Show what would change without writing")
	fixCmd.Flags().BoolP("diff", "d", false, "List every change")

	reviewCmd.Flags().Bool("prune-tags", false, "Remove standalone tag lines left behind after a block")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("max_issues", checkCmd.Flags().Lookup("max-issues"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
	ui.RefreshStyles()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	zerolog.SetGlobalLevel(logLevel(config.GetLogLevel(), verbose, quiet))
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return nil
}

// logLevel resolves the configured level; the flags take precedence
func logLevel(name string, verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.ErrorLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// ============================================================================
// Targets
// ============================================================================

// target is what a command operates on
type target struct {
	paths  []string
	single bool // A file was named directly; its errors are fatal
}

// resolveTarget turns the optional path argument into a list of files
func resolveTarget(args []string) (target, error) {
	path := config.GetPath()
	if len(args) > 0 {
		path = args[0]
	}

	info, err := os.Stat(path)
	if err != nil {
		return target{}, fmt.Errorf("path error: %w", err)
	}
	if !info.IsDir() {
		return target{paths: []string{path}, single: true}, nil
	}

	files, err := document.Discover(path, config.GetSkipDirs(), config.GetExtensions())
	if err != nil {
		return target{}, fmt.Errorf("scan %s: %w", path, err)
	}
	log.Debug().Str("root", path).Int("files", len(files)).Msg("discovered markdown files")
	return target{paths: files}, nil
}

// ============================================================================
// Commands
// ============================================================================

func runCheck(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args)
	if err != nil {
		return err
	}

	proc := batch.NewProcessor()
	var reports []batch.FileReport
	if t.single {
		report, err := proc.CheckFile(t.paths[0])
		if err != nil {
			return err
		}
		reports = []batch.FileReport{report}
	} else {
		reports = proc.Check(t.paths)
	}

	s := ui.NewReporter(cmd.OutOrStdout(), config.GetMaxIssues()).Check(reports)
	switch {
	case s.Invalid > 0:
		return errIssuesFound
	case s.Failed > 0:
		return errFilesFailed
	}
	return nil
}

func runFix(cmd *cobra.Command, args []string) error {
	if prune, _ := cmd.Flags().GetBool("prune-tags"); prune {
		config.SetPruneTags(true)
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	diff, _ := cmd.Flags().GetBool("diff")

	t, err := resolveTarget(args)
	if err != nil {
		return err
	}

	opts := batch.FixOptions{PruneTags: config.GetPruneTags(), DryRun: dryRun}
	proc := batch.NewProcessor()
	var results []batch.FileResult
	if t.single {
		res, err := proc.FixFile(t.paths[0], opts)
		if err != nil {
			return err
		}
		results = []batch.FileResult{res}
	} else {
		results = proc.Fix(t.paths, opts)
	}

	s := ui.NewReporter(cmd.OutOrStdout(), 0).Fix(results, diff || dryRun)
	if s.Failed > 0 {
		return errFilesFailed
	}
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	if prune, _ := cmd.Flags().GetBool("prune-tags"); prune {
		config.SetPruneTags(true)
	}

	t, err := resolveTarget(args)
	if err != nil {
		return err
	}
	opts := batch.FixOptions{PruneTags: config.GetPruneTags()}
	return ui.RunReview(cmd.OutOrStdout(), batch.NewProcessor(), t.paths, opts)
}

func runLangs(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	failed := 0
	for _, path := range t.paths {
		doc, err := document.Load(path)
		if err != nil {
			if t.single {
				return fmt.Errorf("read %s: %w", path, err)
			}
			log.Err(err).Str("file", path).Msg("failed to read")
			failed++
			continue
		}
		for lang, n := range document.LanguageCounts(doc.FencedBlocks()) {
			counts[lang] += n
		}
	}

	ui.NewReporter(cmd.OutOrStdout(), 0).Languages(counts, len(t.paths)-failed)
	if failed > 0 {
		return errFilesFailed
	}
	return nil
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errIssuesFound), errors.Is(err, errFilesFailed):
		return 1
	default:
		return 2
	}
}

func main() {
	rootCmd.Version = version
	err := rootCmd.Execute()
	code := exitCode(err)
	if code == 2 {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
