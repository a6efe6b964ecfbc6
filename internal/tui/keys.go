package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui/input"
)

// keyMap lists every binding. It implements help.KeyMap for the footer.
type keyMap struct {
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	Grab       key.Binding
	Drop       key.Binding
	Unassign   key.Binding
	Palette    key.Binding
	Clear      key.Binding
	ClearBlock key.Binding
	Undo       key.Binding
	Discard    key.Binding
	Save       key.Binding
	Regenerate key.Binding
	NextClass  key.Binding
	PrevClass  key.Binding
	Copy       key.Binding
	Detail     key.Binding
	Prompt     key.Binding
	Help       key.Binding
	Cancel     key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Left:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/l", "period")),
		Right:      key.NewBinding(key.WithKeys("l", "right")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "day")),
		Down:       key.NewBinding(key.WithKeys("j", "down")),
		Grab:       key.NewBinding(key.WithKeys("y", " "), key.WithHelp("y", "grab")),
		Drop:       key.NewBinding(key.WithKeys("enter", " ", "y"), key.WithHelp("enter", "drop")),
		Unassign:   key.NewBinding(key.WithKeys("x", "backspace"), key.WithHelp("x", "unassign")),
		Palette:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "palette")),
		Clear:      key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "clear")),
		ClearBlock: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear block")),
		Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Discard:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "discard")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Regenerate: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "regenerate")),
		NextClass:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "class")),
		PrevClass:  key.NewBinding(key.WithKeys("N")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Detail:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Prompt:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.Grab, k.Palette, k.Clear, k.Undo, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Up, k.Detail, k.NextClass, k.Prompt},
		{k.Grab, k.Drop, k.Unassign, k.Palette, k.Cancel},
		{k.Clear, k.ClearBlock, k.Undo, k.Discard},
		{k.Save, k.Regenerate, k.Copy, k.Help, k.Quit},
	}
}

// modeHelp is the footer help for modes other than normal.
func (k keyMap) modeHelp(mode Mode) []key.Binding {
	switch mode {
	case ModeDrag:
		return []key.Binding{k.Left, k.Up, k.Drop, k.Unassign, k.Cancel}
	case ModePalette:
		return []key.Binding{
			key.NewBinding(key.WithKeys("j", "k"), key.WithHelp("j/k", "resource")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick up")),
			k.Cancel,
		}
	case ModePrompt:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
			k.Cancel,
		}
	default:
		return k.ShortHelp()
	}
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.log.Debug("key press", zap.String("key", msg.String()), zap.Stringer("mode", m.mode))

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeDrag:
		return m.handleDragKeys(msg)
	case ModePalette:
		return m.handlePaletteKeys(msg)
	case ModeModal:
		return m.handleModalKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.session.HasChanges() {
			m.openModal(ModalConfirmQuit)
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Grab):
		addr, ok := m.cursorAddress()
		if !ok {
			return m, nil
		}
		if err := m.session.StartDrag(slotgrid.CellSource{Address: addr}); err != nil {
			cmd := m.setStatus(dragMessage(err))
			return m, cmd
		}
		m.setMode(ModeDrag, "grab cell")
		return m, nil

	case key.Matches(msg, m.keys.Palette):
		if len(m.palette) == 0 {
			cmd := m.setStatus("Palette is empty")
			return m, cmd
		}
		m.paletteCursor = min(m.paletteCursor, len(m.palette)-1)
		m.setMode(ModePalette, "open palette")
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		addr, ok := m.cursorAddress()
		if !ok {
			return m, nil
		}
		if err := m.session.Clear(addr); err != nil {
			cmd := m.setStatus(m.errorMessage(err))
			return m, cmd
		}
		m.conflictAt = nil
		return m, nil

	case key.Matches(msg, m.keys.ClearBlock):
		cmd := m.clearBlock()
		return m, cmd

	case key.Matches(msg, m.keys.Undo):
		label, err := m.session.Undo()
		if errors.Is(err, session.ErrNothingToUndo) {
			cmd := m.setStatus("Nothing to undo")
			return m, cmd
		}
		cmd := m.setStatus("Undid: " + label)
		return m, cmd

	case key.Matches(msg, m.keys.Discard):
		if !m.session.HasChanges() {
			cmd := m.setStatus("No pending changes")
			return m, cmd
		}
		n := m.session.Pending()
		m.session.Discard()
		m.conflictAt = nil
		cmd := m.setStatus(fmt.Sprintf("Discarded %d pending %s", n, plural(n, "edit", "edits")))
		return m, cmd

	case key.Matches(msg, m.keys.Save):
		cmd := m.save()
		return m, cmd

	case key.Matches(msg, m.keys.Regenerate):
		cmd := m.regenerate()
		return m, cmd

	case key.Matches(msg, m.keys.NextClass):
		cmd := m.cycleClass(1)
		return m, cmd

	case key.Matches(msg, m.keys.PrevClass):
		cmd := m.cycleClass(-1)
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		cmd := m.copyExport()
		return m, cmd

	case key.Matches(msg, m.keys.Detail):
		if _, ok := m.cursorAddress(); ok {
			m.openModal(ModalCellDetail)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.openModal(ModalHelp)
		return m, nil

	case key.Matches(msg, m.keys.Prompt):
		m.setMode(ModePrompt, "open prompt")
		m.prompt.SetValue("/")
		m.prompt.CursorEnd()
		m.prompt.Focus()
		m.layout = m.buildLayoutCache(m.width, m.height)
		return m, textinput.Blink
	}
	return m, nil
}

// handleDragKeys handles keys while a drag is in progress. The cursor is the
// drop target.
func (m Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.session.CancelDrag()
		m.setMode(ModeNormal, "cancel drag")
		return m, nil

	case key.Matches(msg, m.keys.Drop):
		addr, ok := m.cursorAddress()
		if !ok {
			return m, nil
		}
		err := m.session.Drop(slotgrid.CellTarget{Address: addr})
		m.setMode(ModeNormal, "drop")
		if err != nil {
			cmd := m.setStatus(dragMessage(err))
			return m, cmd
		}
		m.conflictAt = nil
		return m, nil

	case key.Matches(msg, m.keys.Unassign):
		err := m.session.Drop(slotgrid.PaletteTarget{})
		m.setMode(ModeNormal, "drop on palette")
		if err != nil {
			cmd := m.setStatus(dragMessage(err))
			return m, cmd
		}
		return m, nil
	}
	return m, nil
}

// handlePaletteKeys handles resource selection.
func (m Model) handlePaletteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "p":
		m.setMode(ModeNormal, "close palette")
	case "j", "down", "l", "right":
		if m.paletteCursor < len(m.palette)-1 {
			m.paletteCursor++
		}
	case "k", "up", "h", "left":
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
	case "enter", " ", "y":
		res := m.palette[m.paletteCursor]
		if err := m.session.StartDrag(slotgrid.PaletteSource{Resource: res}); err != nil {
			m.setMode(ModeNormal, "palette error")
			cmd := m.setStatus(dragMessage(err))
			return m, cmd
		}
		m.setMode(ModeDrag, "pick "+res.Name())
	}
	return m, nil
}

// handleModalKeys handles keys while a modal is open.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modalType == ModalConfirmQuit {
		switch msg.String() {
		case "y":
			return m, tea.Quit
		case "s":
			m.closeModal()
			cmd := m.save()
			return m, cmd
		case "n", "esc", "q":
			m.closeModal()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc", "enter", "q", "?":
		m.closeModal()
	}
	return m, nil
}

// handlePromptKeys handles prompt input.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "tab":
		if completion, ok := input.PromptAutocomplete(m.prompt.Value(), promptCommands); ok {
			m.prompt.SetValue(completion)
			m.prompt.CursorEnd()
		}
		return m, nil
	case "enter":
		value := m.prompt.Value()
		m.closePrompt()
		return m.runPrompt(value)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	m.layout = m.buildLayoutCache(m.width, m.height)
	return m, cmd
}

// moveCursor applies navigation keys and reports whether msg was one.
func (m *Model) moveCursor(msg tea.KeyMsg) bool {
	days, periods := len(m.session.Days()), m.periodCount()
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.cursor.Period > 0 {
			m.cursor.Period--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursor.Period < periods-1 {
			m.cursor.Period++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor.Day > 0 {
			m.cursor.Day--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor.Day < days-1 {
			m.cursor.Day++
		}
	default:
		return false
	}
	return true
}

func (m *Model) setMode(mode Mode, reason string) {
	if m.mode != mode {
		m.log.Debug("mode change",
			zap.Stringer("from", m.mode),
			zap.Stringer("to", mode),
			zap.String("reason", reason),
		)
	}
	m.mode = mode
	m.layout = m.buildLayoutCache(m.width, m.height)
}

func (m *Model) openModal(t ModalType) {
	m.modalType = t
	m.setMode(ModeModal, "open modal")
}

func (m *Model) closeModal() {
	m.modalType = ModalNone
	m.setMode(ModeNormal, "close modal")
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.prompt.SetValue("")
	m.setMode(ModeNormal, "close prompt")
}

func dragMessage(err error) string {
	switch {
	case errors.Is(err, slotgrid.ErrNothingToDrag):
		return "Nothing to grab here"
	case errors.Is(err, slotgrid.ErrEmptyResource):
		return "That palette entry carries no teacher, course or room"
	default:
		return timetable.UserMessage(err)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
