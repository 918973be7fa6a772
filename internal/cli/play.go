package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opencode-ai/socdemo/internal/db"
	"github.com/opencode-ai/socdemo/internal/journal"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/spf13/cobra"
)

var (
	playPreset string
	playSpeed  float64
	playRecord bool
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playPreset, "preset", "", "play the scenario of a named preset")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 0, "playback speed multiplier (default from config)")
	playCmd.Flags().BoolVar(&playRecord, "record", false, "record the run in the playback journal")
}

var playCmd = &cobra.Command{
	Use:   "play [scenario-id]",
	Short: "Play a scenario in the terminal",
	Long: `Play a scenario to completion, printing each action as it executes.

Press Ctrl-C to stop the run. With --jsonl every sequencer event is printed as
one JSON line; with --json a run summary is printed at the end.`,
	Example: `  socdemo play threat_response_demo
  socdemo play --preset client_presentation --speed 4
  socdemo play complete_overview --record --jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioID, err := resolvePlayTarget(args, playPreset)
		if err != nil {
			return err
		}
		if playSpeed < 0 {
			return fmt.Errorf("--speed must be positive")
		}

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		seq := newSequencer(catalog, playSpeed)

		if playRecord {
			database, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			recorder, err := journal.NewRecorder(context.Background(), db.NewPlaybackRepository(database), seq)
			if err != nil {
				return err
			}
			defer recorder.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runPlayback(ctx, seq, scenarioID, cmd.OutOrStdout(), playbackMode())
		if err != nil {
			return err
		}
		result.Recorded = playRecord
		if IsJSONOutput() {
			return WriteOutput(cmd.OutOrStdout(), result)
		}
		return nil
	},
}

func resolvePlayTarget(args []string, preset string) (string, error) {
	preset = strings.TrimSpace(preset)
	switch {
	case len(args) > 0 && preset != "":
		return "", fmt.Errorf("pass a scenario id or --preset, not both")
	case preset != "":
		found, err := scenarios.FindPreset(preset)
		if err != nil {
			return "", &PreflightError{
				Message:  err.Error(),
				NextStep: "socdemo preset list",
			}
		}
		return found.ScenarioID, nil
	case len(args) > 0 && strings.TrimSpace(args[0]) != "":
		return strings.TrimSpace(args[0]), nil
	default:
		return "", &PreflightError{
			Message:  "no scenario given",
			Hint:     "Pass a scenario id or --preset <name>",
			NextStep: "socdemo scenario list",
		}
	}
}

type outputMode int

const (
	outputHuman outputMode = iota
	outputJSON
	outputJSONL
)

func playbackMode() outputMode {
	switch {
	case IsJSONLOutput():
		return outputJSONL
	case IsJSONOutput():
		return outputJSON
	default:
		return outputHuman
	}
}

// playbackResult summarizes a finished play run.
type playbackResult struct {
	RunID      string           `json:"run_id"`
	ScenarioID string           `json:"scenario_id"`
	Status     sequencer.Status `json:"status"`
	Actions    int              `json:"actions"`
	Progress   float64          `json:"progress"`
	Elapsed    time.Duration    `json:"elapsed"`
	Recorded   bool             `json:"recorded"`
}

// runPlayback plays scenarioID on seq and writes its events to out. A
// cancelled ctx stops the run and is reported as a stopped result.
func runPlayback(ctx context.Context, seq *sequencer.Sequencer, scenarioID string, out io.Writer, mode outputMode) (playbackResult, error) {
	result := playbackResult{ScenarioID: scenarioID}
	started := time.Now()

	var writeErr error
	encoder := json.NewEncoder(out)
	unsubscribe := seq.SubscribeAll(func(event sequencer.Event) {
		if event.Name == sequencer.EventScenarioStarted && result.RunID == "" {
			result.RunID = event.RunID
		}
		if event.RunID == "" || event.RunID != result.RunID {
			return
		}
		if event.Name == sequencer.EventActionExecuted {
			result.Actions++
		}
		result.Progress = event.Progress

		switch mode {
		case outputJSONL:
			if err := encoder.Encode(event); err != nil && writeErr == nil {
				writeErr = err
			}
		case outputHuman:
			if line, ok := describePlaybackEvent(event); ok {
				fmt.Fprintln(out, line)
			}
		}
	})
	defer unsubscribe()

	err := seq.Run(ctx, scenarioID, nil)
	result.Elapsed = time.Since(started).Round(time.Millisecond)

	switch {
	case err == nil:
		result.Status = sequencer.StatusCompleted
	case errors.Is(err, sequencer.ErrScenarioNotFound):
		return result, &PreflightError{
			Message:  fmt.Sprintf("scenario %q not found", scenarioID),
			NextStep: "socdemo scenario list",
		}
	case errors.Is(err, sequencer.ErrRunStopped), errors.Is(err, context.Canceled):
		result.Status = sequencer.StatusStopped
	default:
		return result, err
	}

	if writeErr != nil {
		return result, fmt.Errorf("failed to write events: %w", writeErr)
	}
	if mode == outputHuman {
		fmt.Fprintf(out, "%s %d actions in %s\n", formatRunStatus(result.Status), result.Actions, formatDuration(result.Elapsed))
	}
	return result, nil
}

// describePlaybackEvent renders the events a presenter follows. Per-kind
// events repeat action_executed and are skipped.
func describePlaybackEvent(event sequencer.Event) (string, bool) {
	progress := fmt.Sprintf("[%3.0f%%]", event.Progress)
	switch payload := event.Payload.(type) {
	case sequencer.ScenarioStarted:
		if payload.Scenario == nil {
			return "", false
		}
		return fmt.Sprintf("%s %s: %s (%d actions)", progress, formatRunStatus(sequencer.StatusRunning), payload.Scenario.Name, payload.Scenario.TotalActions()), true
	case sequencer.ActionExecuted:
		phase := ""
		if payload.Phase != nil {
			phase = payload.Phase.Name
		}
		return fmt.Sprintf("%s %s | %s", progress, phase, formatAction(payload.Action)), true
	case sequencer.ScenarioCompleted:
		return fmt.Sprintf("%s scenario completed", progress), true
	case sequencer.ScenarioStopped:
		return fmt.Sprintf("%s scenario stopped", progress), true
	default:
		return "", false
	}
}
