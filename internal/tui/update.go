package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout = m.buildLayoutCache(m.width, m.height)
		return m, nil

	case commands.MountedMsg:
		return m.handleMounted(msg)

	case commands.SavedMsg:
		return m.handleSaved(msg)

	case commands.RegeneratedMsg:
		return m.handleRegenerated(msg)

	case commands.CopiedMsg:
		cmd := m.setStatus(fmt.Sprintf("Copied %d %s to the clipboard", msg.Lines, plural(msg.Lines, "line", "lines")))
		return m, cmd

	case commands.ErrMsg:
		m.log.Warn("command failed", zap.Error(msg.Err))
		m.statusMsg = "Error: " + m.errorMessage(msg.Err)
		m.statusTime = time.Now().Add(5 * time.Second)
		return m, nil

	case commands.StatusMsgCmd:
		cmd := m.setStatus(msg.Msg)
		return m, cmd

	case commands.ClearStatusMsg:
		if time.Now().After(m.statusTime) {
			m.statusMsg = ""
		}
		return m, nil
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMounted(msg commands.MountedMsg) (tea.Model, tea.Cmd) {
	if msg.Outcome == nil {
		return m, nil
	}
	err := m.session.ApplyMount(msg.Outcome)
	if errors.Is(err, timetable.ErrStaleResponse) {
		m.log.Debug("stale mount dropped", zap.Int64("class_id", msg.Outcome.Ticket.ClassID))
		return m, nil
	}
	if err != nil {
		m.log.Warn("mount failed", zap.Int64("class_id", m.session.ClassID()), zap.Error(err))
		cmd := m.setStatus(m.errorMessage(err))
		return m, cmd
	}

	m.rebuildPalette()
	m.clampCursor()
	m.layout = m.buildLayoutCache(m.width, m.height)
	m.log.Info("class mounted",
		zap.Int64("class_id", m.session.ClassID()),
		zap.Int("slots", m.session.Snapshot().Len()),
	)
	cmd := m.setStatus("Opened " + m.className())
	return m, cmd
}

func (m Model) handleSaved(msg commands.SavedMsg) (tea.Model, tea.Cmd) {
	if msg.Outcome == nil {
		return m, nil
	}
	res, err := m.session.ApplySave(msg.Outcome)
	if errors.Is(err, timetable.ErrStaleResponse) {
		return m, nil
	}

	var partial *session.PartialSaveError
	switch {
	case errors.As(err, &partial):
		if addrs := partial.Addresses(); len(addrs) > 0 {
			addr := addrs[0]
			m.conflictAt = &addr
		}
		m.log.Warn("save partially failed", zap.Int("failed", len(partial.Failed)), zap.Int("pending", res.Pending))
		m.rebuildPalette()
		cmd := m.setStatus(fmt.Sprintf("%d %s not saved. %s",
			len(partial.Failed), plural(len(partial.Failed), "slot", "slots"), m.errorMessage(partial.Unwrap()[0])))
		return m, cmd
	case err != nil:
		m.markConflict(err)
		m.log.Warn("save failed", zap.Error(err))
		cmd := m.setStatus(m.errorMessage(err))
		return m, cmd
	}

	m.conflictAt = nil
	m.rebuildPalette()
	m.log.Info("save finished", zap.Int("reconciled", len(res.Reconciled)), zap.Int("slots", res.Slots))
	cmd := m.setStatus(fmt.Sprintf("Saved. %d %s on the timetable", res.Slots, plural(res.Slots, "lesson", "lessons")))
	return m, cmd
}

func (m Model) handleRegenerated(msg commands.RegeneratedMsg) (tea.Model, tea.Cmd) {
	if msg.Outcome == nil {
		return m, nil
	}
	res, err := m.session.ApplyRegenerate(msg.Outcome)
	if errors.Is(err, timetable.ErrStaleResponse) {
		return m, nil
	}
	if err != nil {
		m.log.Warn("regenerate failed", zap.Error(err))
		cmd := m.setStatus(m.errorMessage(err))
		return m, cmd
	}

	m.conflictAt = nil
	m.rebuildPalette()
	text := fmt.Sprintf("Regenerated. %d %s", res.Slots, plural(res.Slots, "lesson", "lessons"))
	if res.Pending > 0 {
		text += fmt.Sprintf(", %d manual %s kept", res.Pending, plural(res.Pending, "edit", "edits"))
	}
	cmd := m.setStatus(text)
	return m, cmd
}

// className returns the name of the mounted class, or "class #id".
func (m Model) className() string {
	id := m.session.ClassID()
	if res := m.session.Resources(); res != nil {
		for _, c := range res.Classes {
			if c.ID == id && c.Name != "" {
				return c.Name
			}
		}
	}
	return fmt.Sprintf("class #%d", id)
}
