package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
)

const (
	footerCompact       = 2  // status + help
	footerFullMinHeight = 14 // below this only the compact footer fits
	promptMaxLines      = 4
	minColWidth         = 6
)

// LayoutCache stores layout dimensions and styles derived from the window
// size, the loaded catalog and the current mode.
type LayoutCache struct {
	InnerW int
	InnerH int

	FullFooter bool
	FooterH    int
	GridH      int

	ColWidth int // content width of one period column
	RowLines int // text lines per day row, 1 or 2

	SummaryStyle       lipgloss.Style
	PaletteStyle       lipgloss.Style
	StatusAuxStyle     lipgloss.Style
	HelpAuxStyle       lipgloss.Style
	PromptStyle        lipgloss.Style
	PromptFocusedStyle lipgloss.Style
	PromptContentWidth int
}

func promptContentWidth(styles *Styles, innerW int) int {
	promptFrameW, _ := styles.PromptStyle.GetFrameSize()
	promptWidth := max(innerW-promptFrameW, 0)
	if promptWidth < 20 && innerW >= promptFrameW+20 {
		promptWidth = 20
	}
	return promptWidth
}

func (m Model) buildLayoutCache(width, height int) LayoutCache {
	styles := m.styles
	appH, appV := styles.AppStyle.GetFrameSize()
	innerW := max(width-appH, 0)
	innerH := max(height-appV, 0)

	promptWidth := promptContentWidth(styles, innerW)

	full := innerH >= footerFullMinHeight
	footerH := footerCompact
	if full {
		footerH = m.fullFooterHeight(promptWidth)
	}
	gridH := max(innerH-footerH, 2)

	periods := max(m.periodCount(), 1)
	days := max(len(m.session.Days()), 1)

	// Outer border (2) plus one separator per column.
	colWidth := (innerW - 2 - 2 - dayColWidth - periods) / periods
	colWidth = max(colWidth, minColWidth)

	// Top border, header, header separator, bottom border, then one line per
	// row separator.
	rowLines := 1
	if gridH >= 4+days*3-1 {
		rowLines = 2
	}

	footerAuxStyle := lipgloss.NewStyle().
		Width(innerW).
		Background(styles.colorBg)

	return LayoutCache{
		InnerW:             innerW,
		InnerH:             innerH,
		FullFooter:         full,
		FooterH:            footerH,
		GridH:              gridH,
		ColWidth:           colWidth,
		RowLines:           rowLines,
		SummaryStyle:       styles.SummaryStyle,
		PaletteStyle:       styles.PaletteStyle,
		StatusAuxStyle:     styles.StatusStyle.Inherit(footerAuxStyle),
		HelpAuxStyle:       styles.HelpStyle.Padding(0, 1),
		PromptStyle:        styles.PromptStyle,
		PromptFocusedStyle: styles.PromptFocusedStyle,
		PromptContentWidth: promptWidth,
	}
}

// fullFooterHeight counts the lines of the full footer in the current mode.
func (m Model) fullFooterHeight(promptWidth int) int {
	h := footerCompact + 1 // summary
	if m.showPalette() {
		h++
	}
	if m.mode == ModePrompt {
		_, frameV := m.styles.PromptStyle.GetFrameSize()
		h += min(len(m.promptLines(promptWidth)), promptMaxLines) + frameV
	}
	return h
}

// showPalette reports whether the palette strip is visible.
func (m Model) showPalette() bool {
	if m.mode == ModePalette {
		return true
	}
	_, fromPalette := m.session.Dragging().(slotgrid.PaletteSource)
	return m.mode == ModeDrag && fromPalette
}

func (m Model) periodCount() int {
	if c := m.session.Catalog(); c != nil {
		return c.Len()
	}
	return 0
}
