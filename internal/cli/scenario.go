package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/spf13/cobra"
)

var (
	scenarioListAudience []string
	scenarioListFeature  []string
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)

	scenarioListCmd.Flags().StringSliceVar(&scenarioListAudience, "audience", nil, "filter by target audience (comma separated)")
	scenarioListCmd.Flags().StringSliceVar(&scenarioListFeature, "feature", nil, "filter by key feature (comma separated)")
}

var scenarioCmd = &cobra.Command{
	Use:     "scenario",
	Aliases: []string{"scenarios"},
	Short:   "Inspect demo scenarios",
	Long: `Inspect the demo scenario catalog.

Scenarios are loaded from --scenarios-dir, <project>/.socdemo/scenarios and
~/.config/socdemo/scenarios, then the bundled scenarios. The first scenario
found for an id wins.`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios",
	Example: `  socdemo scenario list
  socdemo scenario list --audience executives --feature "threat intelligence"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		items := catalog.Filter(scenarioListAudience, scenarioListFeature)

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), items)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
			return nil
		}
		return writeScenarioTable(cmd.OutOrStdout(), items, userScenarioDir(), projectScenarioDir())
	},
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show <scenario-id>",
	Short: "Show a scenario's phases and actions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		scenario, ok := catalog.Find(strings.TrimSpace(args[0]))
		if !ok {
			return &PreflightError{
				Message:  fmt.Sprintf("scenario %q not found", args[0]),
				Hint:     "Scenario ids are case sensitive",
				NextStep: "socdemo scenario list",
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), scenario)
		}
		return writeScenarioDetail(cmd.OutOrStdout(), scenario)
	},
}

func writeScenarioTable(out io.Writer, items []*scenarios.Scenario, userDir, projectDir string) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			truncate(item.Name),
			fmt.Sprintf("%d", len(item.Phases)),
			fmt.Sprintf("%d", item.TotalActions()),
			formatDuration(item.PlaybackLength()),
			truncate(formatList(item.TargetAudience)),
			scenarioSourceLabel(item.Source, userDir, projectDir),
		})
	}
	return writeTable(out, []string{"ID", "NAME", "PHASES", "ACTIONS", "LENGTH", "AUDIENCE", "SOURCE"}, rows)
}

func writeScenarioDetail(out io.Writer, scenario *scenarios.Scenario) error {
	fmt.Fprintf(out, "%s (%s)\n", scenario.Name, scenario.ID)
	if scenario.Description != "" {
		fmt.Fprintf(out, "%s\n", scenario.Description)
	}
	fmt.Fprintf(out, "Audience: %s\n", formatList(scenario.TargetAudience))
	fmt.Fprintf(out, "Features: %s\n", formatList(scenario.KeyFeatures))
	fmt.Fprintf(out, "Playback: %s over %d actions\n", formatDuration(scenario.PlaybackLength()), scenario.TotalActions())

	for i, phase := range scenario.Phases {
		fmt.Fprintf(out, "\n%d. %s [%s]\n", i+1, phase.Name, phase.ID)
		if phase.Description != "" {
			fmt.Fprintf(out, "   %s\n", phase.Description)
		}
		for j, action := range phase.Actions {
			fmt.Fprintf(out, "   %d.%d %s\n", i+1, j+1, formatAction(action))
		}
	}
	return nil
}

func formatAction(action scenarios.Action) string {
	kind := colorize(fmt.Sprintf("%-12s", action.Kind), colorForKind(action.Kind))
	return fmt.Sprintf("%s %s  %s (%s)", kind, action.Target, action.Content, formatDuration(action.Delay()))
}

func userScenarioDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "socdemo", "scenarios")
}

func projectScenarioDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(wd, ".socdemo", "scenarios")
}

func scenarioSourceLabel(source, userDir, projectDir string) string {
	switch {
	case source == "builtin":
		return "builtin"
	case userDir != "" && isWithin(source, userDir):
		return "user"
	case projectDir != "" && isWithin(source, projectDir):
		return "project"
	case source == "":
		return "-"
	default:
		return "file"
	}
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
