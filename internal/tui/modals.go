package tui

import (
	"fmt"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui/view"
)

// renderModal renders the current modal.
func (m Model) renderModal() string {
	switch m.modalType {
	case ModalHelp:
		return m.renderHelpModal()
	case ModalCellDetail:
		return m.renderCellDetailModal()
	case ModalConfirmQuit:
		return m.renderConfirmQuitModal()
	default:
		return ""
	}
}

func (m Model) renderHelpModal() string {
	body := m.help.FullHelpView(m.keys.FullHelp())
	return view.RenderModalFrame("Keys", body, "esc close", m.styles.modalStyles())
}

// renderCellDetailModal shows the cursor cell, its block and whether the
// shown content is saved.
func (m Model) renderCellDetailModal() string {
	addr, ok := m.cursorAddress()
	if !ok {
		return ""
	}
	rows := m.cellDetailRows(addr)
	body := view.RenderDetailBody(rows, m.styles.modalStyles())
	return view.RenderModalFrame("Slot "+addr.Day.Short()+" "+m.periodLabel(addr.PeriodID), body, "esc close", m.styles.modalStyles())
}

func (m Model) cellDetailRows(addr slotgrid.Address) []view.DetailRow {
	rows := []view.DetailRow{
		{Label: "Class", Value: m.className()},
		{Label: "Day", Value: string(addr.Day)},
		{Label: "Period", Value: m.periodLabel(addr.PeriodID)},
	}

	a, assigned := m.session.Effective(addr)
	if !assigned {
		rows = append(rows, view.DetailRow{Label: "Lesson", Value: "free"})
	} else {
		rows = append(rows,
			view.DetailRow{Label: "Course", Value: timetable.RefLabel(a.Course)},
			view.DetailRow{Label: "Teacher", Value: timetable.RefLabel(a.Teacher)},
			view.DetailRow{Label: "Room", Value: timetable.RefLabel(a.Room)},
			view.DetailRow{Label: "Note", Value: a.Description},
		)
		if grid, err := m.session.Display(); err == nil {
			if block, ok := grid.AnchorOf(addr); ok && block.Span > 1 {
				first := m.periodLabel(block.Covered[0].PeriodID)
				last := m.periodLabel(block.Covered[len(block.Covered)-1].PeriodID)
				rows = append(rows, view.DetailRow{Label: "Block", Value: fmt.Sprintf("%d periods, %s to %s", block.Span, first, last)})
			}
		}
	}

	state := "saved"
	if change, ok := m.session.Changes().Get(addr); ok {
		state = "unsaved " + change.Kind.String()
	}
	if snap := m.session.Snapshot(); snap != nil {
		if id := snap.SlotID(addr); id != 0 {
			state += fmt.Sprintf(" (slot #%d)", id)
		}
	}
	rows = append(rows, view.DetailRow{Label: "State", Value: state})
	return rows
}

func (m Model) renderConfirmQuitModal() string {
	n := len(m.session.Changes())
	body := m.styles.ModalBodyStyle.Render(fmt.Sprintf("%d unsaved %s will be lost.", n, plural(n, "edit", "edits")))
	return view.RenderModalFrame("Quit without saving?", body, "y quit · s save · n cancel", m.styles.modalStyles())
}

// periodLabel returns the time range of a period, or its id when unknown.
func (m Model) periodLabel(id int64) string {
	if c := m.session.Catalog(); c != nil {
		if p, ok := c.Lookup(id); ok {
			return p.Label()
		}
	}
	return fmt.Sprintf("#%d", id)
}
