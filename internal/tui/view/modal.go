package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ModalStyles groups the styles needed to render modal frames.
type ModalStyles struct {
	ModalHeaderStyle lipgloss.Style
	ModalTitleStyle  lipgloss.Style
	ModalFooterStyle lipgloss.Style
	ModalStyle       lipgloss.Style
	ModalBodyStyle   lipgloss.Style
	ModalLabelStyle  lipgloss.Style
}

// RenderModalFrame renders a modal with the provided title, body, and footer.
func RenderModalFrame(title, body, footer string, styles ModalStyles) string {
	var b strings.Builder

	header := styles.ModalHeaderStyle.Render(styles.ModalTitleStyle.Render(title))
	b.WriteString(header)
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.ModalFooterStyle.Render(footer))
	}

	return styles.ModalStyle.Render(b.String())
}

// DetailRow is one "label: value" line of a detail modal.
type DetailRow struct {
	Label string
	Value string
}

// RenderDetailBody renders rows with aligned labels. Empty values are skipped.
func RenderDetailBody(rows []DetailRow, styles ModalStyles) string {
	labelW := 0
	for _, r := range rows {
		if r.Value != "" {
			labelW = max(labelW, len(r.Label))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Value == "" {
			continue
		}
		label := styles.ModalLabelStyle.Render(" " + r.Label + strings.Repeat(" ", labelW-len(r.Label)) + "  ")
		lines = append(lines, label+styles.ModalBodyStyle.Render(r.Value))
	}
	return strings.Join(lines, "\n")
}
