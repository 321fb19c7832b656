package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestClampWidth(t *testing.T) {
	tests := []struct{ in, want int }{
		{10, MinTerminalWidth},
		{80, 80},
		{300, MaxContentWidth},
	}
	for _, tt := range tests {
		if got := clampWidth(tt.in); got != tt.want {
			t.Errorf("clampWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPanelKeepsFieldOrder(t *testing.T) {
	out := NewPanel("WiFi Status", "wifid at 10.0.0.9:80",
		Field{Key: "Status", Value: "Connected"},
		Field{Key: "Network", Value: "home"},
		Field{Key: "IP", Value: "10.0.0.9"},
	).SetWidth(80).Render()

	if !strings.Contains(out, "WIFI STATUS") {
		t.Errorf("title missing:\n%s", out)
	}
	if !strings.Contains(out, "wifid at 10.0.0.9:80") {
		t.Errorf("subtitle missing:\n%s", out)
	}
	status := strings.Index(out, "Connected")
	network := strings.Index(out, "home")
	if status < 0 || network < 0 || status > network {
		t.Errorf("fields out of order:\n%s", out)
	}
}

func TestResultRender(t *testing.T) {
	ok := NewSuccessResult("Connected to home", Field{Key: "IP address", Value: "10.0.0.9"}).SetWidth(80).Render()
	for _, part := range []string{SuccessMarker, "SUCCESS", "Connected to home", "10.0.0.9"} {
		if !strings.Contains(ok, part) {
			t.Errorf("success box missing %q:\n%s", part, ok)
		}
	}

	failed := NewFailureResult("Could not connect", errors.New("wrong password"), []string{"Check the password"}).
		SetWidth(80).Render()
	for _, part := range []string{FailureMarker, "FAILED", "Error: wrong password", "Check the password"} {
		if !strings.Contains(failed, part) {
			t.Errorf("failure box missing %q:\n%s", part, failed)
		}
	}

	warn := NewWarningResult("No internet").AddDetail("Network", "home").SetWidth(80).String()
	if !strings.Contains(warn, "WARNING") || !strings.Contains(warn, "home") {
		t.Errorf("warning box:\n%s", warn)
	}
}

func TestWaitModelFinishesWithTaskError(t *testing.T) {
	boom := errors.New("boom")
	m := newWaitModel("Scanning", func() error { return boom })

	if !strings.Contains(m.View(), "Scanning") {
		t.Errorf("View() = %q, want label", m.View())
	}

	next, cmd := m.Update(doneMsg{err: boom})
	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	wm := next.(waitModel)
	if !wm.done || !errors.Is(wm.err, boom) {
		t.Errorf("model = %+v", wm)
	}
	if wm.View() != "" {
		t.Errorf("View() after done = %q, want empty", wm.View())
	}
}

func TestWaitModelInterrupt(t *testing.T) {
	m := newWaitModel("Connecting", func() error { return nil })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if err := next.(waitModel).err; !errors.Is(err, ErrInterrupted) {
		t.Errorf("err = %v, want ErrInterrupted", err)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil || next.(waitModel).done {
		t.Error("other keys should be ignored")
	}
}
