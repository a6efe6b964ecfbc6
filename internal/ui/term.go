package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Lessons: bold cyan so the week reads at a glance
	colorLesson = color.New(color.FgCyan, color.Bold)

	// Free periods and continuation markers: dim
	colorFree = color.New(color.FgWhite, color.Faint)

	// Notes: yellow to make them pop
	colorNote = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Confirmations: green
	colorOK = color.New(color.FgGreen)

	// Conflicts and failures: red
	colorWarn = color.New(color.FgRed, color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatLesson(s string) string { return colorLesson.Sprint(s) }
func formatFree(s string) string   { return colorFree.Sprint(s) }
func formatNote(s string) string   { return colorNote.Sprint(s) }
func formatHeader(s string) string { return colorHeader.Sprint(s) }
func formatOK(s string) string     { return colorOK.Sprint(s) }
func formatWarn(s string) string   { return colorWarn.Sprint(s) }
func formatMuted(s string) string  { return colorMuted.Sprint(s) }
