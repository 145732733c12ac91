package models

import (
	"testing"
	"time"
)

func TestTimeframeDuration(t *testing.T) {
	tests := []struct {
		interval string
		want     time.Duration
		ok       bool
	}{
		{"1min", time.Minute, true},
		{"15m", 15 * time.Minute, true},
		{"4h", 4 * time.Hour, true},
		{"1day", 24 * time.Hour, true},
		{"3 fortnights", 0, false},
	}
	for _, tt := range tests {
		got, ok := TimeframeDuration(tt.interval)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TimeframeDuration(%q) = %v, %v", tt.interval, got, ok)
		}
	}
}

func TestHigherTimeframeLabel(t *testing.T) {
	tests := []struct {
		interval   string
		multiplier int
		want       string
	}{
		{"15min", 4, "1h"},
		{"1h", 4, "4h"},
		{"5min", 3, "15min"},
		{"5min", 7, "35m0s"},
		{"1h", 1, "1h"},
		{"tick", 4, "tick"},
	}
	for _, tt := range tests {
		if got := HigherTimeframeLabel(tt.interval, tt.multiplier); got != tt.want {
			t.Errorf("HigherTimeframeLabel(%q, %d) = %q, want %q", tt.interval, tt.multiplier, got, tt.want)
		}
	}
}

func TestFactorSet(t *testing.T) {
	fs := NewFactorSet(FactorFVG, FactorBOS, FactorFVG)
	if len(fs) != 2 || fs[0] != FactorBOS || fs[1] != FactorFVG {
		t.Fatalf("set = %v, want sorted unique [has_bos has_fvg]", fs)
	}
	more := fs.With(FactorCHoCH)
	if len(fs) != 2 || len(more) != 3 {
		t.Errorf("With must not modify the receiver: %v / %v", fs, more)
	}
	if !more.Has(FactorCHoCH) || more.Has(FactorSweep) {
		t.Errorf("Has gave the wrong answer for %v", more)
	}
}
