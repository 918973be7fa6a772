package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// step reports a setup stage on stderr before command output starts, for
// example "Loading scenarios... 2 found (4ms)". JSON output, --no-progress
// and SOCDEMO_NO_PROGRESS silence it.
type step struct {
	out     io.Writer
	started time.Time
}

func beginStep(out io.Writer, label string) *step {
	if !progressEnabled() {
		return nil
	}
	fmt.Fprintf(out, "%s... ", label)
	return &step{out: out, started: time.Now()}
}

// end finishes the line with detail, or with err when it is set.
func (s *step) end(detail string, err error) {
	if s == nil {
		return
	}
	elapsed := formatDuration(time.Since(s.started))
	switch {
	case err != nil:
		fmt.Fprintf(s.out, "failed: %v\n", err)
	case detail != "":
		fmt.Fprintf(s.out, "%s (%s)\n", detail, elapsed)
	default:
		fmt.Fprintf(s.out, "done (%s)\n", elapsed)
	}
}

func progressEnabled() bool {
	if IsJSONOutput() || IsJSONLOutput() || noProgress {
		return false
	}
	_, quiet := os.LookupEnv("SOCDEMO_NO_PROGRESS")
	return !quiet
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
