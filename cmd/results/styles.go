package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)
)

// FormatPercent renders a fractional value as a signed percentage.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%+.2f%%", value*100)
}

// FormatRatio renders an optional ratio, showing a dash when the value is
// undefined.
func FormatRatio(value optional.Option[float64]) string {
	if value.IsNone() {
		return "-"
	}

	return fmt.Sprintf("%.2f", value.Unwrap())
}
