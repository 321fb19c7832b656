// Package ui renders wifictl's terminal output.
//
// Styling uses Lipgloss; the wait spinner is a small Bubble Tea program
// that runs while a blocking daemon call is in flight. Everything here is
// "run once and exit": nothing waits for user input except ctrl+c during
// Wait.
//
// Components:
//
//   - Panel: bordered title block with ordered fields (status display)
//   - Result: success, failure or warning box (connect outcome, errors)
//   - Wait: spinner around a blocking call
//
// Callers should only use these when IsTerminal reports true and the
// detailed output format is selected; piped output stays plain.
package ui
