package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// PreflightError is a user-facing failure with a suggested fix.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	return e.Message
}

// PrintError writes err to out, including hints for preflight errors.
func PrintError(out io.Writer, err error) {
	if err == nil {
		return
	}

	var preflight *PreflightError
	if !errors.As(err, &preflight) {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(out, "Error: %s\n", preflight.Message)
	if hint := strings.TrimSpace(preflight.Hint); hint != "" {
		fmt.Fprintf(out, "Hint: %s\n", hint)
	}
	if next := strings.TrimSpace(preflight.NextStep); next != "" {
		fmt.Fprintf(out, "Next: %s\n", next)
	}
}
