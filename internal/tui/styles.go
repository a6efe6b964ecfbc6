// Package tui provides the terminal user interface for pupitre.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/pupitre/internal/tui/theme"
	"github.com/javiermolinar/pupitre/internal/tui/view"
)

// Width of the day label column.
const dayColWidth = 5

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	// Theme colors as lipgloss colors
	colorBg          lipgloss.Color
	colorBgHighlight lipgloss.Color
	colorBgSelection lipgloss.Color
	colorFg          lipgloss.Color
	colorFgMuted     lipgloss.Color
	colorAccent      lipgloss.Color
	colorPending     lipgloss.Color
	colorDrag        lipgloss.Color
	colorWarning     lipgloss.Color

	// Grid headers
	CornerStyle       lipgloss.Style
	PeriodHeaderStyle lipgloss.Style
	DayLabelStyle     lipgloss.Style
	DayLabelCursor    lipgloss.Style

	// Grid cells
	EmptyCellStyle   lipgloss.Style
	LessonStyle      lipgloss.Style
	LessonAltStyle   lipgloss.Style // adjacent blocks alternate shades
	PendingStyle     lipgloss.Style
	PendingAltStyle  lipgloss.Style
	CursorStyle      lipgloss.Style
	DragSourceStyle  lipgloss.Style
	DropPreviewStyle lipgloss.Style
	ConflictStyle    lipgloss.Style

	// Table border
	BorderStyle lipgloss.Style

	// Footer
	SummaryStyle         lipgloss.Style
	SummaryPendingStyle  lipgloss.Style
	PaletteStyle         lipgloss.Style
	PaletteSelectedStyle lipgloss.Style
	StatusStyle          lipgloss.Style
	HelpStyle            lipgloss.Style
	PromptStyle          lipgloss.Style
	PromptFocusedStyle   lipgloss.Style

	// Modal styles
	ModalBgColor     lipgloss.Color
	ModalStyle       lipgloss.Style
	ModalHeaderStyle lipgloss.Style
	ModalTitleStyle  lipgloss.Style
	ModalBodyStyle   lipgloss.Style
	ModalLabelStyle  lipgloss.Style
	ModalFooterStyle lipgloss.Style

	// App container
	AppStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	s := &Styles{}
	palette := theme.NewPalette(t)

	s.colorBg = palette.Bg
	s.colorBgHighlight = palette.BgHighlight
	s.colorBgSelection = palette.BgSelection
	s.colorFg = palette.Fg
	s.colorFgMuted = palette.FgMuted
	s.colorAccent = palette.Accent
	s.colorPending = palette.Pending
	s.colorDrag = palette.Drag
	s.colorWarning = palette.Warning

	s.CornerStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg).
		Bold(true).
		Width(dayColWidth)

	s.PeriodHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Foreground(s.colorFg).
		Background(s.colorBg)

	s.DayLabelStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg).
		Width(dayColWidth)

	s.DayLabelCursor = s.DayLabelStyle.
		Bold(true).
		Underline(true)

	cell := lipgloss.NewStyle().Align(lipgloss.Left)

	s.EmptyCellStyle = cell.
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.LessonStyle = cell.
		Background(palette.LessonBg).
		Foreground(palette.TextOnLesson).
		Bold(true)
	s.LessonAltStyle = s.LessonStyle.
		Background(palette.LessonBgAlt)

	// Unsaved edits keep the lesson look but on the pending shade.
	s.PendingStyle = cell.
		Background(palette.PendingBg).
		Foreground(palette.TextOnPending).
		Bold(true).
		Italic(true)
	s.PendingAltStyle = s.PendingStyle.
		Background(palette.PendingBgAlt)

	s.CursorStyle = cell.
		Background(s.colorBgSelection).
		Foreground(s.colorAccent).
		Bold(true)

	s.DragSourceStyle = cell.
		Background(palette.DragBg).
		Foreground(palette.TextOnDrag).
		Faint(true)

	s.DropPreviewStyle = cell.
		Background(s.colorDrag).
		Foreground(palette.TextOnDrag).
		Bold(true)

	s.ConflictStyle = cell.
		Background(s.colorWarning).
		Foreground(palette.TextOnWarning).
		Bold(true)

	s.BorderStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg)

	s.SummaryStyle = lipgloss.NewStyle().
		Foreground(s.colorFg).
		Background(s.colorBg)

	s.SummaryPendingStyle = lipgloss.NewStyle().
		Foreground(s.colorPending).
		Background(s.colorBg).
		Bold(true)

	s.PaletteStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBgHighlight)

	s.PaletteSelectedStyle = lipgloss.NewStyle().
		Foreground(palette.TextOnAccent).
		Background(s.colorAccent).
		Bold(true)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.colorWarning).
		Background(s.colorBg)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.PromptStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.colorFgMuted).
		BorderBackground(s.colorBg).
		Background(s.colorBgHighlight).
		Foreground(s.colorFg).
		Padding(0, 1)

	s.PromptFocusedStyle = s.PromptStyle.
		BorderForeground(s.colorAccent).
		Background(s.colorBgSelection).
		Bold(true)

	s.ModalBgColor = palette.Modal.Bg
	s.ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(palette.Modal.Border).
		BorderBackground(s.ModalBgColor).
		Background(s.ModalBgColor).
		Foreground(palette.Modal.Text).
		Padding(1, 2)

	s.ModalHeaderStyle = lipgloss.NewStyle().
		Background(s.ModalBgColor)

	s.ModalTitleStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.ModalBgColor).
		Bold(true)

	s.ModalBodyStyle = lipgloss.NewStyle().
		Foreground(palette.Modal.Text).
		Background(s.ModalBgColor)

	s.ModalLabelStyle = lipgloss.NewStyle().
		Foreground(palette.Modal.Muted).
		Background(s.ModalBgColor)

	s.ModalFooterStyle = lipgloss.NewStyle().
		Foreground(palette.Modal.Muted).
		Background(s.ModalBgColor)

	s.AppStyle = lipgloss.NewStyle().
		Background(s.colorBg).
		Padding(0, 1)

	return s
}

// modalStyles returns the subset needed by view.RenderModalFrame.
func (s *Styles) modalStyles() view.ModalStyles {
	return view.ModalStyles{
		ModalHeaderStyle: s.ModalHeaderStyle,
		ModalTitleStyle:  s.ModalTitleStyle,
		ModalFooterStyle: s.ModalFooterStyle,
		ModalStyle:       s.ModalStyle,
		ModalBodyStyle:   s.ModalBodyStyle,
		ModalLabelStyle:  s.ModalLabelStyle,
	}
}
