package models

import (
	"errors"
	"strings"
	"testing"
)

func TestPlaybackEventValidate(t *testing.T) {
	tests := []struct {
		name   string
		event  PlaybackEvent
		fields []string
	}{
		{"valid", PlaybackEvent{RunID: "r", Type: "alert", Progress: 50}, nil},
		{"missing run", PlaybackEvent{Type: "alert"}, []string{"run_id"}},
		{"missing everything", PlaybackEvent{Progress: 101}, []string{"run_id", "type", "progress"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var validation *ValidationErrors
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(validation.Errors) != len(tt.fields) {
				t.Fatalf("expected %d errors, got %v", len(tt.fields), validation.Errors)
			}
			for i, field := range tt.fields {
				if validation.Errors[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, validation.Errors[i].Field, field)
				}
				if !strings.Contains(err.Error(), field) {
					t.Errorf("message %q does not mention %q", err.Error(), field)
				}
			}
		})
	}
}

func TestRunSummaryFinished(t *testing.T) {
	if (RunSummary{Outcome: RunOutcomeRunning}).Finished() {
		t.Fatal("running run reported finished")
	}
	if !(RunSummary{Outcome: RunOutcomeStopped}).Finished() {
		t.Fatal("stopped run not finished")
	}
}
