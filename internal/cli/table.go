package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	tablePadding  = 2
	maxCellLength = 60
)

func writeTable(out io.Writer, headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(out, 0, 0, tablePadding, ' ', tabwriter.StripEscape)
	if len(headers) > 0 {
		fmt.Fprintln(writer, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	return writer.Flush()
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

// truncate shortens s to maxCellLength runes for table cells.
func truncate(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxCellLength {
		return string(runes)
	}
	return string(runes[:maxCellLength-3]) + "..."
}
