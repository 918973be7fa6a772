package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/socdemo/internal/sequencer"
)

// eventBuffer is how many sequencer events may queue while the program is
// busy rendering.
const eventBuffer = 128

// PlaybackEventMsg wraps a sequencer event for the TUI.
type PlaybackEventMsg struct {
	Event sequencer.Event
}

// eventBridge forwards sequencer events into the Bubble Tea loop. Events
// arriving while the buffer is full are dropped; the next render reads
// the sequencer state directly.
type eventBridge struct {
	events      chan sequencer.Event
	done        chan struct{}
	unsubscribe func()
}

func newEventBridge(seq *sequencer.Sequencer) *eventBridge {
	bridge := &eventBridge{
		events: make(chan sequencer.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	bridge.unsubscribe = seq.SubscribeAll(func(event sequencer.Event) {
		select {
		case bridge.events <- event:
		default:
		}
	})
	return bridge
}

// wait returns a command delivering the next event.
func (b *eventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-b.events:
			return PlaybackEventMsg{Event: event}
		case <-b.done:
			return nil
		}
	}
}

func (b *eventBridge) close() {
	b.unsubscribe()
	close(b.done)
}
