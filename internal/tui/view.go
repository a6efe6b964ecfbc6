package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui/view"
)

// View renders the TUI using a boxed, parent-controlled layout.
func (m Model) View() string {
	return view.Render(m.viewState())
}

func (m Model) viewState() view.ViewState {
	showModal := m.mode == ModeModal && m.modalType != ModalNone
	modal := ""
	if showModal {
		modal = m.renderModal()
	}

	return view.ViewState{
		Width:            m.width,
		Height:           m.height,
		BaseContent:      m.renderAppContent(),
		ModalContent:     modal,
		ShowModal:        showModal,
		ModalBg:          m.styles.ModalBgColor,
		EmptyPlaceholder: "Loading...",
	}
}

func (m Model) renderAppContent() string {
	layout := m.layout
	if layout.InnerW <= 0 || layout.InnerH <= 0 {
		return "Terminal too small"
	}

	var gridBox string
	if m.session.Loaded() {
		gridBox = view.RenderTable(m.tableViewState(layout))
	} else {
		gridBox = view.PlaceBox(layout.InnerW, layout.GridH, lipgloss.Center,
			lipgloss.PlaceHorizontal(layout.InnerW, lipgloss.Center, m.emptyGridText(),
				lipgloss.WithWhitespaceBackground(m.styles.colorBg)),
			m.styles.colorBg)
	}
	footerBox := view.RenderFooterModel(m.footerViewState(layout))

	content := lipgloss.JoinVertical(lipgloss.Left, gridBox, footerBox)
	app := m.styles.AppStyle.Render(content)
	return view.PadLinesWithBackground(app, m.width, m.height, m.styles.colorBg)
}

func (m Model) emptyGridText() string {
	switch {
	case m.session.Loading():
		return m.styles.HelpStyle.Render("Loading " + m.className() + "...")
	case m.session.ClassID() == 0:
		return m.styles.HelpStyle.Render("No class selected. Type /class <id> to open one.")
	default:
		return m.styles.StatusStyle.Render("Could not load " + m.className())
	}
}

func (m Model) tableViewState(layout LayoutCache) view.TableViewState {
	grid, err := m.session.Display()
	if err != nil || layout.GridH <= 0 {
		return view.TableViewState{Render: false}
	}

	periods := grid.Periods()
	headers := view.PeriodHeaders("", periods, layout.ColWidth)
	headerStyles := make([]lipgloss.Style, len(headers))
	headerStyles[0] = m.styles.CornerStyle
	for i := 1; i < len(headers); i++ {
		style := m.styles.PeriodHeaderStyle.Width(layout.ColWidth)
		if i-1 == m.cursor.Period {
			style = style.Foreground(m.styles.colorAccent)
		}
		headerStyles[i] = style
	}

	rows, cellStyles := m.buildGridRows(grid, layout)

	return view.TableViewState{
		InnerW:       layout.InnerW,
		GridH:        layout.GridH,
		Headers:      headers,
		HeaderStyles: headerStyles,
		Content: view.TableContent{
			Rows:       rows,
			CellStyles: cellStyles,
		},
		BorderStyle: m.styles.BorderStyle,
		VAlign:      lipgloss.Top,
		Bg:          m.styles.colorBg,
		Render:      true,
	}
}

// buildGridRows renders one table row per day. Column 0 holds the day label.
func (m Model) buildGridRows(grid *slotgrid.DisplayGrid, layout LayoutCache) ([][]string, [][]lipgloss.Style) {
	days := grid.Days()
	changes := m.session.Changes()

	var dragFrom *slotgrid.Address
	if src, ok := m.session.Dragging().(slotgrid.CellSource); ok {
		dragFrom = &src.Address
	}

	rows := make([][]string, 0, len(days))
	styles := make([][]lipgloss.Style, 0, len(days))
	for d, day := range days {
		cells := grid.Row(day)
		row := make([]string, 0, len(cells)+1)
		rowStyles := make([]lipgloss.Style, 0, len(cells)+1)

		label := view.DayLabel(day)
		if d == m.cursor.Day {
			rowStyles = append(rowStyles, m.styles.DayLabelCursor)
		} else {
			rowStyles = append(rowStyles, m.styles.DayLabelStyle)
		}
		row = append(row, label)

		block := -1
		for p, c := range cells {
			if _, ok := c.(slotgrid.AnchorCell); ok {
				block++
			}
			addr := c.At()
			_, pending := changes.Get(addr)

			style := m.cellStyle(c, pending, block%2 == 1)
			switch {
			case m.conflictAt != nil && *m.conflictAt == addr:
				style = m.styles.ConflictStyle
			case d == m.cursor.Day && p == m.cursor.Period && m.mode == ModeDrag:
				style = m.styles.DropPreviewStyle
			case d == m.cursor.Day && p == m.cursor.Period:
				style = m.styles.CursorStyle
			case dragFrom != nil && m.inBlock(grid, *dragFrom, addr):
				style = m.styles.DragSourceStyle
			}

			row = append(row, cellText(c, layout.ColWidth, layout.RowLines))
			rowStyles = append(rowStyles, style.Width(layout.ColWidth))
		}
		rows = append(rows, row)
		styles = append(styles, rowStyles)
	}
	return rows, styles
}

func (m Model) cellStyle(c slotgrid.Cell, pending, alt bool) lipgloss.Style {
	if _, ok := c.(slotgrid.EmptyCell); ok {
		if pending {
			return m.styles.PendingStyle
		}
		return m.styles.EmptyCellStyle
	}
	switch {
	case pending && alt:
		return m.styles.PendingAltStyle
	case pending:
		return m.styles.PendingStyle
	case alt:
		return m.styles.LessonAltStyle
	default:
		return m.styles.LessonStyle
	}
}

// inBlock reports whether addr belongs to the block that holds src.
func (m Model) inBlock(grid *slotgrid.DisplayGrid, src, addr slotgrid.Address) bool {
	if src == addr {
		return true
	}
	block, ok := grid.AnchorOf(src)
	if !ok {
		return false
	}
	for _, a := range block.Covered {
		if a == addr {
			return true
		}
	}
	return false
}

// cellText is the text of one grid cell. Anchors show the lesson, absorbed
// cells a continuation marker, empty cells a dot.
func cellText(c slotgrid.Cell, width, lines int) string {
	switch c := c.(type) {
	case slotgrid.AnchorCell:
		a := c.Assignment
		first := view.Fit(timetable.RefLabel(a.Course), width)
		if first == "" {
			first = view.Fit(a.Label(), width)
		}
		if lines < 2 {
			return view.Fit(a.Label(), width)
		}
		second := timetable.RefLabel(a.Teacher)
		if a.Room != nil {
			second += " @ " + timetable.RefLabel(a.Room)
		}
		if a.Description != "" {
			second = a.Description
		}
		return first + "\n" + view.Fit(second, width)
	case slotgrid.AbsorbedCell:
		text := "›"
		if lines > 1 {
			text += "\n"
		}
		return text
	default:
		text := "·"
		if lines > 1 {
			text += "\n"
		}
		return text
	}
}

func (m Model) footerViewState(layout LayoutCache) view.FooterModel {
	contentWidth := layout.PromptContentWidth
	lines := view.ClampPromptLines(m.promptLines(contentWidth), promptMaxLines, contentWidth)

	promptStyle := layout.PromptStyle
	if m.mode == ModePrompt {
		promptStyle = layout.PromptFocusedStyle
	}

	return view.FooterModel{
		InnerW:       layout.InnerW,
		FooterH:      layout.FooterH,
		FullFooter:   layout.FullFooter,
		SummaryText:  m.renderSummary(),
		PaletteText:  m.renderPalette(layout.InnerW),
		StatusText:   m.statusMsg,
		HelpText:     m.help.ShortHelpView(m.keys.modeHelp(m.mode)),
		PromptLines:  lines,
		ShowPrompt:   m.mode == ModePrompt,
		SummaryStyle: layout.SummaryStyle,
		PaletteStyle: layout.PaletteStyle,
		StatusStyle:  layout.StatusAuxStyle,
		HelpStyle:    layout.HelpAuxStyle,
		PromptStyle:  promptStyle,
		VAlign:       lipgloss.Bottom,
		Bg:           m.styles.colorBg,
	}
}

// renderSummary describes the mounted class, pending edits and any backend
// call in flight.
func (m Model) renderSummary() string {
	if m.session.ClassID() == 0 {
		return "no class"
	}
	parts := []string{m.className()}

	if changes := m.session.Changes(); !changes.Empty() {
		parts = append(parts, m.styles.SummaryPendingStyle.Render(
			fmt.Sprintf("%d unsaved (%d new, %d changed, %d removed)",
				len(changes),
				changes.Count(slotgrid.ChangeCreate),
				changes.Count(slotgrid.ChangeUpdate),
				changes.Count(slotgrid.ChangeDelete),
			)))
	} else if m.session.Loaded() {
		parts = append(parts, "saved")
	}
	if n := m.session.UndoCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d undo", n))
	}

	switch {
	case m.session.Loading():
		parts = append(parts, "loading...")
	case m.session.Saving():
		parts = append(parts, "saving...")
	case m.session.Regenerating():
		parts = append(parts, "regenerating...")
	}

	if m.mode == ModeDrag {
		parts = append(parts, "carrying "+m.dragName())
	}
	return strings.Join(parts, " · ")
}

// dragName names what the active drag carries.
func (m Model) dragName() string {
	switch src := m.session.Dragging().(type) {
	case slotgrid.PaletteSource:
		return src.Resource.Name()
	case slotgrid.CellSource:
		if a, ok := m.session.Effective(src.Address); ok {
			return a.Label()
		}
	}
	return "nothing"
}

// renderPalette renders the resource strip around the selected entry.
func (m Model) renderPalette(width int) string {
	if !m.showPalette() || len(m.palette) == 0 {
		return ""
	}

	start := max(m.paletteCursor-2, 0)
	var b strings.Builder
	used := 0
	for i := start; i < len(m.palette); i++ {
		name := " " + m.palette[i].Name() + " "
		w := lipgloss.Width(name) + 1
		if used+w > width && i > m.paletteCursor {
			break
		}
		if i == m.paletteCursor {
			b.WriteString(m.styles.PaletteSelectedStyle.Render(name))
		} else {
			b.WriteString(m.styles.PaletteStyle.Render(name))
		}
		b.WriteString(m.styles.PaletteStyle.Render("│"))
		used += w
	}
	return b.String()
}
