package logger

import (
	"strings"
	"sync"
	"testing"
)

func advance(pb *ProgressBar, n int) {
	for i := 0; i < n; i++ {
		pb.Increment()
	}
}

// TestProgressBarRender verifies correct ASCII bar rendering
func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		width    int
		expected string
	}{
		{name: "empty progress", current: 0, total: 10, width: 10, expected: "[          ] 0/10 (0%)"},
		{name: "half progress", current: 5, total: 10, width: 10, expected: "[=====     ] 5/10 (50%)"},
		{name: "full progress", current: 10, total: 10, width: 10, expected: "[==========] 10/10 (100%)"},
		{name: "quarter progress", current: 2, total: 8, width: 8, expected: "[==      ] 2/8 (25%)"},
		{name: "large width", current: 30, total: 100, width: 20, expected: "[======              ] 30/100 (30%)"},
		{name: "overshoot is capped", current: 12, total: 10, width: 10, expected: "[==========] 12/10 (100%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, tt.width, false)
			advance(pb, tt.current)
			if result := pb.Render(); result != tt.expected {
				t.Errorf("Render() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestProgressBarEdgeCases(t *testing.T) {
	pb := NewProgressBar(0, 10, false)
	if got := pb.Percentage(); got != 0 {
		t.Errorf("Percentage() with zero total = %d, want 0", got)
	}

	pb = NewProgressBar(4, 0, false)
	advance(pb, 2)
	if got := pb.Render(); got != "[=====     ] 2/4 (50%)" {
		t.Errorf("Render() with default width = %q", got)
	}
}

func TestProgressBarColor(t *testing.T) {
	pb := NewProgressBar(2, 4, true)
	advance(pb, 1)
	if !strings.Contains(pb.Render(), "1/2 (50%)") {
		t.Errorf("colored render lost its content: %q", pb.Render())
	}

	plain := NewProgressBar(2, 4, false)
	advance(plain, 1)
	if strings.Contains(plain.Render(), "\033[") {
		t.Errorf("plain render contains escape codes: %q", plain.Render())
	}
}

func TestProgressBarConcurrency(t *testing.T) {
	pb := NewProgressBar(100, 10, false)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
			_ = pb.Render()
		}()
	}
	wg.Wait()

	if got := pb.Current(); got != 100 {
		t.Errorf("Current() = %d, want 100", got)
	}
	if got := pb.Percentage(); got != 100 {
		t.Errorf("Percentage() = %d, want 100", got)
	}
}
