// Package commands provides TUI command constructors and message types.
// Every command runs a session executor off the event loop and reports back
// with a message; the model applies it on the loop.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/pupitre/internal/session"
)

// MountedMsg is sent when a class timetable has been fetched.
type MountedMsg struct {
	Outcome *session.MountOutcome
}

// SavedMsg is sent when a save round trip finishes, successful or not.
type SavedMsg struct {
	Outcome *session.SaveOutcome
}

// RegeneratedMsg is sent when the optimizer and its refresh finish.
type RegeneratedMsg struct {
	Outcome *session.RegenerateOutcome
}

// CopiedMsg is sent when the export has been put on the clipboard.
type CopiedMsg struct {
	Lines int
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// Mount fetches what plan asks for.
func Mount(loader *session.Loader, plan *session.MountPlan) tea.Cmd {
	return func() tea.Msg {
		if loader == nil || plan == nil {
			return ErrMsg{Err: errors.New("no class to load")}
		}
		return MountedMsg{Outcome: loader.Execute(context.Background(), plan)}
	}
}

// Save submits plan and fetches the refreshed timetable.
func Save(coord *session.SaveCoordinator, plan *session.SavePlan) tea.Cmd {
	return func() tea.Msg {
		if coord == nil || plan == nil {
			return ErrMsg{Err: errors.New("no changes to save")}
		}
		return SavedMsg{Outcome: coord.Execute(context.Background(), plan)}
	}
}

// Regenerate runs the backend optimizer for plan's class.
func Regenerate(coord *session.RegenerateCoordinator, plan *session.RegeneratePlan) tea.Cmd {
	return func() tea.Msg {
		if coord == nil || plan == nil {
			return ErrMsg{Err: errors.New("no class to regenerate")}
		}
		return RegeneratedMsg{Outcome: coord.Execute(context.Background(), plan)}
	}
}

// CopyToClipboard writes text to the system clipboard.
func CopyToClipboard(text string, lines int) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return CopiedMsg{Lines: lines}
	}
}
