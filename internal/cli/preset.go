package cli

import (
	"fmt"

	"github.com/opencode-ai/socdemo/internal/logging"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd)
}

var presetCmd = &cobra.Command{
	Use:     "preset",
	Aliases: []string{"presets"},
	Short:   "Inspect presentation presets",
	Long:    "Presets are named presentation scripts built on a catalog scenario.",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		presets := scenarios.Presets()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		warnUnavailablePresets(catalog, presets)

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), presets)
		}

		rows := make([][]string, 0, len(presets))
		for _, preset := range presets {
			_, available := catalog.Find(preset.ScenarioID)
			rows = append(rows, []string{
				preset.Name,
				preset.ScenarioID,
				preset.Duration.String(),
				fmt.Sprintf("%d", len(preset.Highlights)),
				formatYesNo(available),
				truncate(preset.Description),
			})
		}
		return writeTable(cmd.OutOrStdout(), []string{"NAME", "SCENARIO", "DURATION", "HIGHLIGHTS", "AVAILABLE", "DESCRIPTION"}, rows)
	},
}

// warnUnavailablePresets logs presets whose scenario is not in catalog.
func warnUnavailablePresets(catalog *scenarios.Catalog, presets []scenarios.Preset) {
	if err := scenarios.ValidatePresets(catalog, presets); err != nil {
		logger := logging.Component("cli")
		logger.Warn().Err(err).Msg("preset references a missing scenario")
	}
}
