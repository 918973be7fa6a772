package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/opencode-ai/socdemo/internal/tui/styles"
)

const (
	progressFillRune  = "█"
	progressTrackRune = "░"
)

// RenderProgressBar draws percent (0-100) as a bar of width cells followed
// by the rounded percentage.
func RenderProgressBar(styleSet styles.Styles, percent float64, width int) string {
	if width < 1 {
		width = 1
	}
	if math.IsNaN(percent) || percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(math.Round(percent / 100 * float64(width)))
	bar := styleSet.ProgressFill.Render(strings.Repeat(progressFillRune, filled)) +
		styleSet.ProgressTrack.Render(strings.Repeat(progressTrackRune, width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, percent)
}
