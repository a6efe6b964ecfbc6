package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FooterModel contains content and styles for rendering the footer.
type FooterModel struct {
	InnerW      int
	FooterH     int
	FullFooter  bool
	SummaryText string // pending edits and in-flight operations
	PaletteText string // palette strip, shown while picking a resource
	StatusText  string
	HelpText    string
	PromptLines []string
	ShowPrompt  bool

	SummaryStyle lipgloss.Style
	PaletteStyle lipgloss.Style
	StatusStyle  lipgloss.Style
	HelpStyle    lipgloss.Style
	PromptStyle  lipgloss.Style
	VAlign       lipgloss.Position
	Bg           lipgloss.Color
}

// RenderFooterModel builds footer lines and renders the footer. A short
// footer keeps only the status and help lines.
func RenderFooterModel(model FooterModel) string {
	if model.FooterH <= 0 {
		return ""
	}

	var lines []string
	if model.FullFooter {
		lines = append(lines, footerLine(model.InnerW, model.SummaryStyle, model.SummaryText))
		if model.PaletteText != "" {
			lines = append(lines, footerLine(model.InnerW, model.PaletteStyle, model.PaletteText))
		}
		if model.ShowPrompt {
			lines = append(lines, RenderPrompt(model.InnerW, model.PromptStyle, model.PromptLines))
		}
	}
	lines = append(lines,
		footerLine(model.InnerW, model.StatusStyle, model.StatusText),
		footerLine(model.InnerW, model.HelpStyle, model.HelpText),
	)

	return PlaceBox(model.InnerW, model.FooterH, model.VAlign, strings.Join(lines, "\n"), model.Bg)
}

func footerLine(width int, style lipgloss.Style, content string) string {
	frameW, _ := style.GetFrameSize()
	contentWidth := max(width-frameW, 0)
	style = style.Width(contentWidth)
	if contentWidth > 0 {
		content = Fit(content, contentWidth)
	}
	return style.Render(content)
}
