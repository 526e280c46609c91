package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/mdfence/internal/config"
)

// StyleManager encapsulates all report and TUI styles
type StyleManager struct {
	// Report styles
	OK    lipgloss.Style
	Error lipgloss.Style
	Warn  lipgloss.Style
	Path  lipgloss.Style
	Dim   lipgloss.Style
	Bold  lipgloss.Style

	// Review styles
	Cursor  lipgloss.Style
	Added   lipgloss.Style
	Removed lipgloss.Style

	// Chrome styles
	Divider lipgloss.Style

	// Colors for direct access
	SelectedBg lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		OK:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Warn:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Path:       lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:       lipgloss.NewStyle().Bold(true),
		Cursor:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Added:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Removed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Divider:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		SelectedBg: lipgloss.Color("236"),
	}
}

// LoadFromConfig updates styles based on configuration
func (s *StyleManager) LoadFromConfig() {
	okColor := parseANSIColor(config.GetColorOK())
	errColor := parseANSIColor(config.GetColorError())
	warnColor := parseANSIColor(config.GetColorWarn())
	pathColor := parseANSIColor(config.GetColorPath())
	dimColor := parseANSIColor(config.GetColorDim())

	s.OK = lipgloss.NewStyle().Foreground(okColor)
	s.Error = lipgloss.NewStyle().Foreground(errColor)
	s.Warn = lipgloss.NewStyle().Foreground(warnColor)
	s.Path = lipgloss.NewStyle().Foreground(pathColor)
	s.Dim = lipgloss.NewStyle().Foreground(dimColor)

	// Diff lines follow the ok/error palette
	s.Added = lipgloss.NewStyle().Foreground(okColor)
	s.Removed = lipgloss.NewStyle().Foreground(errColor)
}

// WithSelection returns a copy of the given style with the selected background applied
func (s *StyleManager) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.SelectedBg)
}

// parseANSIColor converts ANSI color codes to lipgloss colors
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}

// Global style manager instance
var styles = DefaultStyles()

// RefreshStyles updates the global styles from config
func RefreshStyles() {
	styles.LoadFromConfig()
}
