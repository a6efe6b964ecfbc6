package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/tui/input"
	"github.com/javiermolinar/pupitre/internal/tui/view"
)

var promptCommands = []input.PromptCommand{
	{
		Name:        "/class",
		Description: "Open the timetable of a class by id",
	},
	{
		Name:        "/note",
		Description: "Set the description of the lesson under the cursor",
	},
	{
		Name:        "/save",
		Description: "Save pending edits",
	},
	{
		Name:        "/regenerate",
		Description: "Let the server rebuild this timetable",
	},
	{
		Name:        "/discard",
		Description: "Drop every pending edit",
	},
	{
		Name:        "/export",
		Description: "Copy the timetable as text",
	},
	{
		Name:        "/help",
		Description: "Show key bindings",
	},
	{
		Name:        "/quit",
		Description: "Leave pupitre",
	},
}

func (m Model) promptLines(contentWidth int) []string {
	state := view.PromptState{
		Value:      m.prompt.Value(),
		Cursor:     m.promptCursor(),
		ModePrompt: m.mode == ModePrompt,
	}
	return view.PromptLines(state, contentWidth, promptCommands)
}

// promptCursor returns the cursor character if in prompt mode.
func (m Model) promptCursor() string {
	if m.mode == ModePrompt {
		return "_"
	}
	return ""
}

// runPrompt executes a submitted prompt line.
func (m Model) runPrompt(value string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(value) == "" || strings.TrimSpace(value) == "/" {
		return m, nil
	}
	name, args, err := input.ParseCommand(value)
	if err != nil {
		cmd := m.setStatus("Unknown command. Type / to see the list.")
		return m, cmd
	}
	m.log.Debug("prompt command", zap.String("command", name), zap.Strings("args", args))

	var cmd tea.Cmd
	switch name {
	case "/class":
		if len(args) != 1 {
			cmd = m.setStatus("Usage: /class <id>")
			break
		}
		id, err := input.ParseID(args[0])
		if err != nil {
			cmd = m.setStatus(err.Error())
			break
		}
		cmd = m.switchClass(id)
	case "/note":
		cmd = m.setNote(strings.Join(args, " "))
	case "/save":
		cmd = m.save()
	case "/regenerate":
		cmd = m.regenerate()
	case "/discard":
		m.session.Discard()
		m.conflictAt = nil
		cmd = m.setStatus("Pending edits discarded")
	case "/export":
		cmd = m.copyExport()
	case "/help":
		m.openModal(ModalHelp)
	case "/quit":
		if m.session.HasChanges() {
			m.openModal(ModalConfirmQuit)
			break
		}
		return m, tea.Quit
	default:
		cmd = m.setStatus("Unknown command " + name)
	}
	return m, cmd
}
