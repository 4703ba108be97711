package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/example/voicestudio/internal/playback"
)

// StateMsg carries a transport snapshot from the playback engine.
type StateMsg playback.State

// Relay hands engine notifications to the UI. Only the newest state is
// kept, so a slow renderer never blocks the engine's frame loop.
type Relay struct {
	ch chan playback.State
}

func NewRelay() *Relay {
	return &Relay{ch: make(chan playback.State, 1)}
}

// Notify is meant for playback.WithNotify.
func (r *Relay) Notify(st playback.State) {
	for {
		select {
		case r.ch <- st:
			return
		default:
		}
		// Drop the stale state and retry.
		select {
		case <-r.ch:
		default:
		}
	}
}

// Wait returns a command that blocks until the next state arrives.
func (r *Relay) Wait() tea.Cmd {
	return func() tea.Msg {
		return StateMsg(<-r.ch)
	}
}
