package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/config"
	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui/commands"
	"github.com/javiermolinar/pupitre/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeDrag         // carrying a cell or palette resource
	ModePalette      // picking a palette resource to drag
	ModePrompt
	ModeModal
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDrag:
		return "drag"
	case ModePalette:
		return "palette"
	case ModePrompt:
		return "prompt"
	case ModeModal:
		return "modal"
	default:
		return "unknown"
	}
}

// ModalType identifies the type of modal.
type ModalType int

const (
	ModalNone        ModalType = iota
	ModalHelp                  // key bindings
	ModalCellDetail            // what the cursor cell holds and whether it is saved
	ModalConfirmQuit           // quitting with unsaved edits
)

// Position is a cursor position in the grid: Day indexes the session days
// (rows), Period indexes the catalog (columns).
type Position struct {
	Day    int
	Period int
}

// Model is the main TUI model. It is the only writer of the session: every
// backend call runs off the loop and comes back as a message.
type Model struct {
	// Dependencies
	session *session.Session
	loader  *session.Loader
	saver   *session.SaveCoordinator
	regen   *session.RegenerateCoordinator
	config  *config.Config
	log     *zap.Logger

	// Theme and styles
	theme  *theme.Theme
	styles *Styles
	keys   keyMap
	help   help.Model

	// State
	classID   int64 // class to mount on Init
	cursor    Position
	mode      Mode
	modalType ModalType

	// Palette of drag resources; rebuilt after every load.
	palette       []slotgrid.Resource
	paletteCursor int

	// Address named by the last conflict, highlighted until the next edit.
	conflictAt *slotgrid.Address

	// Components
	prompt textinput.Model

	// Terminal dimensions and layout
	width  int
	height int
	layout LayoutCache

	// Messages
	statusMsg  string    // Temporary status/error message
	statusTime time.Time // When to clear message
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithLogger routes the TUI event log to log.
func WithLogger(log *zap.Logger) ModelOption {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClass sets the class mounted on startup.
func WithClass(classID int64) ModelOption {
	return func(m *Model) {
		m.classID = classID
	}
}

// New creates a new TUI model over backend.
func New(backend timetable.Backend, cfg *config.Config, opts ...ModelOption) *Model {
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "/class 2"
	ti.Prompt = ""
	ti.CharLimit = 256

	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load("mocha")
	}
	styles := NewStyles(t)

	m := &Model{
		config:  cfg,
		log:     zap.NewNop(),
		theme:   t,
		styles:  styles,
		keys:    newKeyMap(),
		help:    help.New(),
		classID: cfg.Grid.DefaultClass,
		mode:    ModeNormal,
		prompt:  ti,
		palette: cfg.PaletteResources(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.help.Styles.ShortKey = styles.HelpStyle.Bold(true)
	m.help.Styles.ShortDesc = styles.HelpStyle
	m.help.Styles.ShortSeparator = styles.HelpStyle
	m.help.Styles.FullKey = styles.ModalTitleStyle
	m.help.Styles.FullDesc = styles.ModalBodyStyle
	m.help.Styles.FullSeparator = styles.ModalBodyStyle

	days, err := cfg.Days()
	if err != nil || len(days) == 0 {
		days = timetable.GridDays()
	}
	mode, err := cfg.SaveMode()
	if err != nil {
		mode = session.SaveModeBulk
	}

	m.session = session.New(
		session.WithLogger(m.log.Named("session")),
		session.WithDays(days),
	)
	m.loader = session.NewLoader(backend, m.log.Named("loader"))
	m.saver = session.NewSaveCoordinator(backend, mode, m.log.Named("save"))
	m.regen = session.NewRegenerateCoordinator(backend, m.log.Named("regenerate"))
	m.layout = m.buildLayoutCache(0, 0)

	return m
}

// Init mounts the startup class.
func (m Model) Init() tea.Cmd {
	if m.classID <= 0 {
		return func() tea.Msg {
			return commands.StatusMsgCmd{Msg: "No class selected. Type /class <id> to open one."}
		}
	}
	return m.mount(m.classID)
}

// mount starts loading classID.
func (m Model) mount(classID int64) tea.Cmd {
	plan, err := m.session.BeginMount(classID)
	if err != nil {
		return func() tea.Msg { return commands.ErrMsg{Err: err} }
	}
	return commands.Mount(m.loader, plan)
}

// Run starts the TUI.
func Run(backend timetable.Backend, cfg *config.Config, opts ...ModelOption) error {
	model := New(backend, cfg, opts...)
	model.log.Info("tui start", zap.Int64("class_id", model.classID))
	defer model.log.Info("tui stop")

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
