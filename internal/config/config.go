package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/gubarz/mdfence/internal/document"
)

// DefaultMaxIssues is how many issues check prints per file
const DefaultMaxIssues = 5

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("path", ".")
	viper.SetDefault("skip_dirs", document.DefaultSkipDirs)
	viper.SetDefault("extensions", document.DefaultExtensions)
	viper.SetDefault("prune_tags", false) // Standalone-tag cleanup is opt-in
	viper.SetDefault("max_issues", DefaultMaxIssues)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("color_ok", "32")    // Green
	viper.SetDefault("color_error", "31") // Red
	viper.SetDefault("color_warn", "33")  // Yellow
	viper.SetDefault("color_path", "36")  // Cyan
	viper.SetDefault("color_dim", "90")   // Gray

	viper.SetConfigName("mdfence")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "mdfence"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("MDFENCE")
	viper.AutomaticEnv()

	// A missing config file is fine; a malformed one is reported
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// GetPath returns the target path with tilde expansion
func GetPath() string {
	path := viper.GetString("path")
	return expandTilde(path)
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetSkipDirs returns directory names excluded from discovery
func GetSkipDirs() []string {
	return viper.GetStringSlice("skip_dirs")
}

// GetExtensions returns the markdown file extensions
func GetExtensions() []string {
	return viper.GetStringSlice("extensions")
}

// GetPruneTags returns whether standalone tag lines are pruned during fix
func GetPruneTags() bool {
	return viper.GetBool("prune_tags")
}

// GetMaxIssues returns how many issues are printed per file (0 = all)
func GetMaxIssues() int {
	return viper.GetInt("max_issues")
}

func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetColorOK returns ANSI color code for success lines
func GetColorOK() string {
	return viper.GetString("color_ok")
}

// GetColorError returns ANSI color code for failures
func GetColorError() string {
	return viper.GetString("color_error")
}

// GetColorWarn returns ANSI color code for issues
func GetColorWarn() string {
	return viper.GetString("color_warn")
}

// GetColorPath returns ANSI color code for file paths
func GetColorPath() string {
	return viper.GetString("color_path")
}

// GetColorDim returns ANSI color code for secondary text
func GetColorDim() string {
	return viper.GetString("color_dim")
}

// SetPruneTags sets standalone tag pruning at runtime
func SetPruneTags(prune bool) {
	viper.Set("prune_tags", prune)
}
