package report

import "github.com/fatih/color"

// ColorScheme holds the colour functions used by the table renderer.
type ColorScheme struct {
	Header  func(format string, a ...any) string
	Success func(format string, a ...any) string
	Error   func(format string, a ...any) string
	Value   func(format string, a ...any) string
}

// NewColorScheme returns plain formatting when noColor is set or when
// fatih/color has detected a non-terminal.
func NewColorScheme(noColor bool) *ColorScheme {
	if noColor || color.NoColor {
		plain := color.New().Sprintf
		return &ColorScheme{Header: plain, Success: plain, Error: plain, Value: plain}
	}

	return &ColorScheme{
		Header:  color.New(color.Bold).Sprintf,
		Success: color.New(color.FgGreen).Sprintf,
		Error:   color.New(color.FgRed, color.Bold).Sprintf,
		Value:   color.New(color.FgCyan).Sprintf,
	}
}

// Status picks Success or Error.
func (c *ColorScheme) Status(failed bool) func(format string, a ...any) string {
	if failed {
		return c.Error
	}
	return c.Success
}
