package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/opencode-ai/socdemo/internal/tui/styles"
)

// EventLog keeps the most recent playback events for display.
type EventLog struct {
	limit   int
	entries []sequencer.Event
}

// NewEventLog creates a log holding at most limit events.
func NewEventLog(limit int) EventLog {
	if limit < 1 {
		limit = 1
	}
	return EventLog{limit: limit}
}

// Append adds an event, evicting the oldest when full.
func (l EventLog) Append(event sequencer.Event) EventLog {
	entries := append(append([]sequencer.Event(nil), l.entries...), event)
	if len(entries) > l.limit {
		entries = entries[len(entries)-l.limit:]
	}
	return EventLog{limit: l.limit, entries: entries}
}

// Len returns the number of retained events.
func (l EventLog) Len() int {
	return len(l.entries)
}

// Render draws the log oldest first.
func (l EventLog) Render(styleSet styles.Styles) string {
	if len(l.entries) == 0 {
		return styleSet.Muted.Render("No events yet.")
	}
	lines := make([]string, 0, len(l.entries))
	for _, event := range l.entries {
		lines = append(lines, formatEvent(styleSet, event))
	}
	return strings.Join(lines, "\n")
}

func formatEvent(styleSet styles.Styles, event sequencer.Event) string {
	stamp := styleSet.Muted.Render(event.Timestamp.Local().Format(time.Kitchen))
	name := fmt.Sprintf("%-18s", event.Name)
	detail := DescribeEvent(event)

	switch event.Name {
	case sequencer.EventAlert:
		name = styleSet.Error.Render(name)
	case sequencer.EventScenarioStarted, sequencer.EventScenarioCompleted:
		name = styleSet.Success.Render(name)
	case sequencer.EventScenarioStopped:
		name = styleSet.Warning.Render(name)
	default:
		name = styleSet.Info.Render(name)
	}

	if detail == "" {
		return fmt.Sprintf("%s %s", stamp, name)
	}
	return fmt.Sprintf("%s %s %s", stamp, name, styleSet.Text.Render(detail))
}

// DescribeEvent summarizes an event payload in one line.
func DescribeEvent(event sequencer.Event) string {
	switch p := event.Payload.(type) {
	case sequencer.ScenarioStarted:
		if p.Scenario != nil {
			return p.Scenario.Name
		}
	case sequencer.ScenarioCompleted:
		if p.Scenario != nil {
			return p.Scenario.Name
		}
	case sequencer.ActionExecuted:
		phase := ""
		if p.Phase != nil {
			phase = p.Phase.Name
		}
		return fmt.Sprintf("[%s] %s %s", phase, p.Action.Kind, p.Action.Target)
	case sequencer.Navigation:
		return p.Target
	case sequencer.Highlight:
		return p.Selector
	case sequencer.DataUpdate:
		return p.Target
	case sequencer.Alert:
		return p.Content
	case sequencer.Explanation:
		return p.Content
	}
	return ""
}
