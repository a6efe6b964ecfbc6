package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui/commands"
)

const statusDuration = 3 * time.Second

// setStatus shows msg in the footer until the next clear tick.
func (m *Model) setStatus(msg string) tea.Cmd {
	if msg == "" {
		return nil
	}
	m.statusMsg = msg
	m.statusTime = time.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}

// cursorAddress returns the grid address under the cursor.
func (m Model) cursorAddress() (slotgrid.Address, bool) {
	days := m.session.Days()
	catalog := m.session.Catalog()
	if !m.session.Loaded() || catalog == nil {
		return slotgrid.Address{}, false
	}
	if m.cursor.Day < 0 || m.cursor.Day >= len(days) || m.cursor.Period < 0 || m.cursor.Period >= catalog.Len() {
		return slotgrid.Address{}, false
	}
	return slotgrid.At(days[m.cursor.Day], catalog.At(m.cursor.Period).ID), true
}

// clampCursor keeps the cursor inside the loaded grid.
func (m *Model) clampCursor() {
	m.cursor.Day = max(min(m.cursor.Day, len(m.session.Days())-1), 0)
	m.cursor.Period = max(min(m.cursor.Period, m.periodCount()-1), 0)
}

// rebuildPalette lists configured resources first, then every distinct
// assignment already on the grid, then bare courses and teachers.
func (m *Model) rebuildPalette() {
	palette := m.config.PaletteResources()
	seen := make(map[[3]int64]bool, len(palette))
	add := func(r slotgrid.Resource) {
		k := [3]int64{timetable.RefID(r.Teacher), timetable.RefID(r.Course), timetable.RefID(r.Room)}
		if k == [3]int64{} || seen[k] {
			return
		}
		seen[k] = true
		palette = append(palette, r)
	}
	for _, r := range palette {
		seen[[3]int64{timetable.RefID(r.Teacher), timetable.RefID(r.Course), timetable.RefID(r.Room)}] = true
	}

	if snap := m.session.Snapshot(); snap != nil {
		for _, addr := range snap.Addresses() {
			a, _ := snap.Assignment(addr)
			add(slotgrid.Resource{Teacher: a.Teacher, Course: a.Course, Room: a.Room})
		}
	}
	if res := m.session.Resources(); res != nil {
		for _, c := range res.Courses {
			add(slotgrid.Resource{Course: &c})
		}
		for _, t := range res.Teachers {
			add(slotgrid.Resource{Teacher: &t})
		}
	}

	m.palette = palette
	m.paletteCursor = max(min(m.paletteCursor, len(palette)-1), 0)
}

// save starts a save of the pending edits.
func (m *Model) save() tea.Cmd {
	plan, err := m.session.BeginSave()
	switch {
	case errors.Is(err, session.ErrNoChanges):
		return m.setStatus("Nothing to save")
	case errors.Is(err, session.ErrOperationInFlight):
		return m.setStatus(m.busyStatus())
	case err != nil:
		m.markConflict(err)
		return m.setStatus(m.errorMessage(err))
	}
	m.log.Info("save started", zap.Int64("class_id", plan.ClassID), zap.Int("changes", len(plan.Changes)))
	return commands.Save(m.saver, plan)
}

// regenerate asks the backend to rebuild the timetable.
func (m *Model) regenerate() tea.Cmd {
	plan, err := m.session.BeginRegenerate()
	switch {
	case errors.Is(err, session.ErrOperationInFlight):
		return m.setStatus(m.busyStatus())
	case err != nil:
		return m.setStatus(m.errorMessage(err))
	}
	m.log.Info("regenerate started", zap.Int64("class_id", plan.ClassID))
	return commands.Regenerate(m.regen, plan)
}

func (m *Model) busyStatus() string {
	if m.session.Regenerating() {
		return "Regenerate already in progress"
	}
	return "Save already in progress"
}

// cycleClass mounts the next or previous class from the resource list.
func (m *Model) cycleClass(step int) tea.Cmd {
	res := m.session.Resources()
	if res == nil || len(res.Classes) == 0 {
		return m.setStatus("No classes to switch to")
	}
	idx := 0
	for i, c := range res.Classes {
		if c.ID == m.session.ClassID() {
			idx = (i + step + len(res.Classes)) % len(res.Classes)
			break
		}
	}
	return m.switchClass(res.Classes[idx].ID)
}

// switchClass drops the current class and mounts classID.
func (m *Model) switchClass(classID int64) tea.Cmd {
	var warn tea.Cmd
	if n := m.session.Pending(); n > 0 && m.session.HasChanges() {
		warn = m.setStatus(fmt.Sprintf("Dropped %d unsaved %s", n, plural(n, "edit", "edits")))
	}
	m.classID = classID
	m.conflictAt = nil
	m.mode = ModeNormal
	return tea.Batch(warn, m.mount(classID))
}

// copyExport puts the plain-text timetable on the clipboard.
func (m *Model) copyExport() tea.Cmd {
	grid, err := m.session.Display()
	if err != nil {
		return m.setStatus(m.errorMessage(err))
	}
	lines := grid.ExportLines()
	return commands.CopyToClipboard(grid.ExportText(), len(lines))
}

// clearBlock empties every cell of the block under the cursor in one edit.
func (m *Model) clearBlock() tea.Cmd {
	addr, ok := m.cursorAddress()
	if !ok {
		return nil
	}
	grid, err := m.session.Display()
	if err != nil {
		return m.setStatus(m.errorMessage(err))
	}
	block, ok := grid.AnchorOf(addr)
	if !ok {
		return nil
	}
	ops := make([]slotgrid.Op, 0, len(block.Covered))
	for _, a := range block.Covered {
		ops = append(ops, slotgrid.ClearOp(a))
	}
	if err := m.session.Apply(slotgrid.Mutation{Label: "Clear block " + block.Address.String(), Ops: ops}); err != nil {
		return m.setStatus(m.errorMessage(err))
	}
	m.conflictAt = nil
	return nil
}

// setNote writes text as the description of the block under the cursor.
func (m *Model) setNote(text string) tea.Cmd {
	addr, ok := m.cursorAddress()
	if !ok {
		return m.setStatus("No cell selected")
	}
	grid, err := m.session.Display()
	if err != nil {
		return m.setStatus(m.errorMessage(err))
	}
	block, ok := grid.AnchorOf(addr)
	if !ok {
		return m.setStatus("Notes need an assigned cell")
	}
	ops := make([]slotgrid.Op, 0, len(block.Covered))
	for _, a := range block.Covered {
		current, ok := m.session.Effective(a)
		if !ok {
			continue
		}
		current.Description = text
		ops = append(ops, slotgrid.SetOp(a, current))
	}
	if err := m.session.Apply(slotgrid.Mutation{Label: "Note " + block.Address.String(), Ops: ops}); err != nil {
		return m.setStatus(m.errorMessage(err))
	}
	if !m.session.HasChanges() {
		return m.setStatus("Note kept until the next lesson change is saved")
	}
	return nil
}

// markConflict remembers the address a conflict or validation error names.
func (m *Model) markConflict(err error) {
	var conflict *timetable.ConflictError
	var verr *timetable.ValidationError
	switch {
	case errors.As(err, &conflict) && conflict.PeriodID != 0:
		addr := slotgrid.At(conflict.Day, conflict.PeriodID)
		m.conflictAt = &addr
	case errors.As(err, &verr) && verr.PeriodID != 0:
		addr := slotgrid.At(verr.Day, verr.PeriodID)
		m.conflictAt = &addr
	}
}

// errorMessage turns err into footer text.
func (m Model) errorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNoClass):
		return "No class selected. Type /class <id> to open one."
	case errors.Is(err, session.ErrNotLoaded):
		return "Timetable is still loading"
	}
	if msg := timetable.UserMessage(err); msg != "" {
		return msg
	}
	return ""
}
