package view

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderModalFrame(t *testing.T) {
	styles := ModalStyles{}
	out := RenderModalFrame("Title", "body", "footer", styles)
	for _, want := range []string{"Title", "body", "footer"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestRenderDetailBody_SkipsEmptyAndAligns(t *testing.T) {
	styles := ModalStyles{
		ModalLabelStyle: lipgloss.NewStyle(),
		ModalBodyStyle:  lipgloss.NewStyle(),
	}
	body := RenderDetailBody([]DetailRow{
		{Label: "Course", Value: "Math"},
		{Label: "Room", Value: ""},
		{Label: "Teacher", Value: "Ada"},
	}, styles)

	lines := strings.Split(body, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if strings.Index(lines[0], "Math") != strings.Index(lines[1], "Ada") {
		t.Errorf("values are not aligned: %q", lines)
	}
}

func TestRenderModalOverlay_CentersModal(t *testing.T) {
	base := strings.Repeat(strings.Repeat(".", 10)+"\n", 4) + strings.Repeat(".", 10)
	out := RenderModalOverlay(base, "XX", 10, 5, lipgloss.Color(""))

	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[2], "XX") {
		t.Errorf("expected modal on the middle line, got %q", lines[2])
	}
	if strings.Contains(lines[0], "XX") {
		t.Errorf("modal leaked onto first line: %q", lines[0])
	}
}

func TestRender_Placeholder(t *testing.T) {
	if got := Render(ViewState{}); got != "Loading..." {
		t.Errorf("Render = %q, want Loading...", got)
	}
	if got := Render(ViewState{Width: 10, Height: 2, BaseContent: "grid"}); got != "grid" {
		t.Errorf("Render = %q, want base content", got)
	}
}
