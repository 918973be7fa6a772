package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opencode-ai/socdemo/internal/db"
	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", db.DefaultRunLimit, "maximum number of runs to show")
}

// historyStore is the part of the journal the history commands read.
type historyStore interface {
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*models.RunSummary, error)
	ListByRun(ctx context.Context, runID string) ([]*models.PlaybackEvent, error)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs",
	Long:  "Inspect runs recorded with `socdemo play --record` or `socdemo serve --record`.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		return listHistory(cmd.Context(), db.NewPlaybackRepository(database), cmd.OutOrStdout(), historyLimit)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the events of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		return showHistory(cmd.Context(), db.NewPlaybackRepository(database), cmd.OutOrStdout(), args[0])
	},
}

func listHistory(ctx context.Context, store historyStore, out io.Writer, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs. Record one with: socdemo play <scenario-id> --record")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.RunID,
			run.ScenarioID,
			formatRunOutcome(run.Outcome),
			fmt.Sprintf("%.0f%%", run.Progress),
			fmt.Sprintf("%d", run.Events),
			formatTimestamp(run.StartedAt),
			formatDuration(run.LastEvent.Sub(run.StartedAt)),
		})
	}
	return writeTable(out, []string{"RUN", "SCENARIO", "OUTCOME", "PROGRESS", "EVENTS", "STARTED", "LENGTH"}, rows)
}

// runDetail is the JSON shape of `history show`.
type runDetail struct {
	models.RunSummary
	Entries []*models.PlaybackEvent `json:"entries"`
}

func showHistory(ctx context.Context, store historyStore, out io.Writer, runID string) error {
	runID = strings.TrimSpace(runID)
	summary, err := store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			return &PreflightError{
				Message:  fmt.Sprintf("run %q not found", runID),
				NextStep: "socdemo history list",
			}
		}
		return err
	}
	events, err := store.ListByRun(ctx, runID)
	if err != nil {
		return err
	}

	if IsJSONLOutput() {
		return WriteOutput(out, events)
	}
	if IsJSONOutput() {
		return WriteOutput(out, runDetail{RunSummary: *summary, Entries: events})
	}

	fmt.Fprintf(out, "Run %s (%s) %s\n", summary.RunID, summary.ScenarioID, formatRunOutcome(summary.Outcome))
	fmt.Fprintf(out, "Started %s, %d events\n\n", formatTimestamp(summary.StartedAt), summary.Events)

	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			formatOffset(event.Timestamp.Sub(summary.StartedAt)),
			event.Type,
			fmt.Sprintf("%.0f%%", event.Progress),
			event.PhaseID,
			truncate(describeEntry(event)),
		})
	}
	return writeTable(out, []string{"AT", "EVENT", "PROGRESS", "PHASE", "DETAIL"}, rows)
}

func describeEntry(event *models.PlaybackEvent) string {
	switch {
	case event.Target != "" && event.Content != "":
		return event.Target + ": " + event.Content
	case event.Target != "":
		return event.Target
	default:
		return event.Content
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return "+" + formatDuration(d)
}
