package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tiksnap/internal/media"
	"tiksnap/internal/relay"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		out     string
		n       int
		want    int
		wantErr bool
	}{
		{"2\tthird item\n", 3, 2, false},
		{"0\tYes", 2, 0, false},
		{"", 2, -1, true},
		{"5\tout of range", 3, -1, true},
		{"x\tbad", 3, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			got, err := parseSelection(tt.out, tt.n)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseSelection(%q) = %d, %v", tt.out, got, err)
			}
		})
	}
}

func TestCompact(t *testing.T) {
	tests := map[int64]string{
		0:             "0",
		950:           "950",
		1000:          "1K",
		1200:          "1.2K",
		3_460_000:     "3.5M",
		2_000_000_000: "2B",
	}
	for n, want := range tests {
		if got := compact(n); got != want {
			t.Errorf("compact(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestSummary(t *testing.T) {
	resp := media.Response{
		Type: media.Video, Description: "dance #fyp", Creator: "alice",
		Views: 56000, Likes: 1200, MusicTitle: "song", MusicAuthor: "band",
	}
	out := Summary(resp, "ssstik", []relay.Asset{{Label: "video", Source: "https://cdn/a.mp4"}})

	for _, want := range []string{"dance #fyp", "@alice", "56K views", "song by band", "ssstik", "https://cdn/a.mp4"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary() missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryTable(t *testing.T) {
	out := HistoryTable([]media.HistoryEntry{
		{Canonical: "https://www.tiktok.com/@a/video/1", Backend: "tikwm", Type: media.Video, Status: 200, CreatedAt: 1700000000},
		{Source: "garbage", Status: 400, CreatedAt: 1700000100},
	})
	for _, want := range []string{"STATUS", "BACKEND", "tikwm", "https://www.tiktok.com/@a/video/1", "garbage", "400"} {
		if !strings.Contains(out, want) {
			t.Errorf("HistoryTable() missing %q:\n%s", want, out)
		}
	}
}

func TestSpinnerModelFinishes(t *testing.T) {
	m := spinnerModel{label: "resolving", cancel: func() {}}
	boom := errors.New("boom")

	next, cmd := m.Update(doneMsg{err: boom})
	sm := next.(spinnerModel)
	if !sm.done || !errors.Is(sm.err, boom) {
		t.Errorf("model = %+v", sm)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if sm.View() != "" {
		t.Errorf("View() after done = %q", sm.View())
	}
}

func TestSpinnerModelCtrlCCancels(t *testing.T) {
	cancelled := false
	m := spinnerModel{cancel: func() { cancelled = true }}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled {
		t.Error("ctrl+c did not cancel")
	}
}

func TestWithSpinnerWithoutTerminal(t *testing.T) {
	// Test binaries write stderr to a pipe, so fn runs directly.
	called := false
	err := WithSpinner(context.Background(), "x", func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("WithSpinner() = %v, called = %v", err, called)
	}
}
