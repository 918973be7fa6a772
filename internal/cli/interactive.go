package cli

import "os"

// IsNonInteractive reports whether prompts and the TUI must be skipped.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("SOCDEMO_NON_INTERACTIVE"); ok {
		return true
	}
	return !hasTTY()
}
