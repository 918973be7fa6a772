package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/opencode-ai/socdemo/internal/sequencer"
)

func setOutputFlags(t *testing.T, json, jsonl bool) {
	t.Helper()
	prevJSON, prevJSONL := jsonOutput, jsonlOutput
	jsonOutput, jsonlOutput = json, jsonl
	t.Cleanup(func() {
		jsonOutput, jsonlOutput = prevJSON, prevJSONL
	})
}

func TestWriteOutput(t *testing.T) {
	items := []map[string]int{{"a": 1}, {"b": 2}}

	tests := []struct {
		name  string
		jsonl bool
		value any
		want  string
	}{
		{"json slice", false, items, "[\n  {\n    \"a\": 1\n  },\n  {\n    \"b\": 2\n  }\n]\n"},
		{"jsonl slice", true, items, "{\"a\":1}\n{\"b\":2}\n"},
		{"jsonl object", true, map[string]string{"k": "v"}, "{\"k\":\"v\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOutputFlags(t, !tt.jsonl, tt.jsonl)
			var buf bytes.Buffer
			if err := WriteOutput(&buf, tt.value); err != nil {
				t.Fatalf("WriteOutput() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("WriteOutput() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "Error: boom\n"},
		{
			"preflight",
			&PreflightError{Message: "missing", Hint: "look here", NextStep: "socdemo scenario list"},
			"Error: missing\nHint: look here\nNext: socdemo scenario list\n",
		},
		{"preflight without hint", &PreflightError{Message: "missing"}, "Error: missing\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			if buf.String() != tt.want {
				t.Errorf("PrintError() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatStatusLabel(t *testing.T) {
	tests := []struct {
		label  string
		status string
		want   string
	}{
		{"OK", "completed", "OK completed"},
		{"OPEN", "", "OPEN"},
		{"PLAY", "data_update", "PLAY data update"},
	}

	for _, tt := range tests {
		if got := formatStatusLabel(tt.label, tt.status); got != tt.want {
			t.Errorf("formatStatusLabel(%q, %q) = %q, want %q", tt.label, tt.status, got, tt.want)
		}
	}
}

func TestStatusLabels(t *testing.T) {
	runTests := map[sequencer.Status]string{
		sequencer.StatusRunning:   "PLAY",
		sequencer.StatusCompleted: "OK",
		sequencer.StatusStopped:   "STOP",
		sequencer.StatusIdle:      "IDLE",
	}
	for status, want := range runTests {
		if got, _ := statusLabelForRun(status); got != want {
			t.Errorf("statusLabelForRun(%q) = %q, want %q", status, got, want)
		}
	}

	outcomeTests := map[string]string{
		models.RunOutcomeCompleted: "OK",
		models.RunOutcomeStopped:   "STOP",
		models.RunOutcomeRunning:   "OPEN",
	}
	for outcome, want := range outcomeTests {
		if got, _ := statusLabelForOutcome(outcome); got != want {
			t.Errorf("statusLabelForOutcome(%q) = %q, want %q", outcome, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	short := "short text"
	if got := truncate(short); got != short {
		t.Errorf("truncate(%q) = %q", short, got)
	}

	long := strings.Repeat("x", maxCellLength+10)
	got := truncate(long)
	if len([]rune(got)) != maxCellLength || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate(long) = %q (%d runes)", got, len([]rune(got)))
	}
}

func TestFormatList(t *testing.T) {
	if got := formatList(nil); got != "-" {
		t.Errorf("formatList(nil) = %q, want -", got)
	}
	if got := formatList([]string{"a", "b"}); got != "a, b" {
		t.Errorf("formatList() = %q, want \"a, b\"", got)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeTable(&buf, []string{"ID", "NAME"}, [][]string{{"a", "Alpha"}, {"bb", "Beta"}})
	if err != nil {
		t.Fatalf("writeTable() error = %v", err)
	}
	want := "ID  NAME\na   Alpha\nbb  Beta\n"
	if buf.String() != want {
		t.Errorf("writeTable() = %q, want %q", buf.String(), want)
	}
}
