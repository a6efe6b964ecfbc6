package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func TestViewRendersGrid(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	store := newTestRepo(t)
	m := newTestModel(t, store, 1)

	out := ansi.Strip(m.View())

	for _, want := range []string{"Mon", "Sat", "08:00-08:50", "Mathematics", "Literature", "1A", "saved"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(out, "Terminal too small") {
		t.Error("140x40 should fit the grid")
	}
}

func TestViewShowsPendingSummary(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	store := newTestRepo(t)
	m := newTestModel(t, store, 1)

	m, _ = press(t, m, "x")
	out := ansi.Strip(m.View())

	if !strings.Contains(out, "1 unsaved (0 new, 0 changed, 1 removed)") {
		t.Errorf("summary missing pending count:\n%s", out)
	}
}

func TestViewBeforeResize(t *testing.T) {
	store := newTestRepo(t)
	m := New(store, nil, WithClass(1))

	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want placeholder", got)
	}
}

func TestViewModalOverlay(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	store := newTestRepo(t)
	m := newTestModel(t, store, 1)

	m, _ = press(t, m, "enter")
	out := ansi.Strip(m.View())

	for _, want := range []string{"Slot Mon 08:00-08:50", "Mathematics", "Ada Lovelace", "Room 101", "2 periods", "saved"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail modal missing %q", want)
		}
	}
}

func TestViewPaletteStrip(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	store := newTestRepo(t)
	m := newTestModel(t, store, 1)

	if m.renderPalette(100) != "" {
		t.Error("palette strip should be hidden in normal mode")
	}

	m, _ = press(t, m, "p")
	strip := ansi.Strip(m.renderPalette(100))
	if !strings.Contains(strip, m.palette[0].Name()) {
		t.Errorf("palette strip %q missing %q", strip, m.palette[0].Name())
	}
}

func TestCellText(t *testing.T) {
	addr := slotgrid.At(timetable.Monday, 1)
	lesson := slotgrid.Assignment{
		Course:  &timetable.Ref{ID: 1, Name: "Mathematics"},
		Teacher: &timetable.Ref{ID: 1, Name: "Ada"},
		Room:    &timetable.Ref{ID: 1, Name: "101"},
	}
	noted := lesson
	noted.Description = "quiz"

	tests := []struct {
		name  string
		cell  slotgrid.Cell
		width int
		lines int
		want  string
	}{
		{"empty", slotgrid.EmptyCell{Address: addr}, 10, 1, "·"},
		{"empty two lines", slotgrid.EmptyCell{Address: addr}, 10, 2, "·\n"},
		{"absorbed", slotgrid.AbsorbedCell{Address: addr, Anchor: addr}, 10, 1, "›"},
		{"anchor one line", slotgrid.AnchorCell{Address: addr, Span: 1, Assignment: lesson}, 40, 1, "Mathematics · Ada @ 101"},
		{"anchor two lines", slotgrid.AnchorCell{Address: addr, Span: 1, Assignment: lesson}, 40, 2, "Mathematics\nAda @ 101"},
		{"note replaces teacher line", slotgrid.AnchorCell{Address: addr, Span: 1, Assignment: noted}, 40, 2, "Mathematics\nquiz"},
		{"truncated", slotgrid.AnchorCell{Address: addr, Span: 1, Assignment: lesson}, 6, 1, "Mathe…"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cellText(tc.cell, tc.width, tc.lines); got != tc.want {
				t.Errorf("cellText() = %q, want %q", got, tc.want)
			}
		})
	}
}
