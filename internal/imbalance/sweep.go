package imbalance

import (
	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/models"
)

type sweepTracker struct {
	threshold float64
	sweeps    []models.LiquiditySweep
	swept     map[int]bool
	// pending holds indexes of unconfirmed sweeps from the previous bar
	pending []int
}

func newSweepTracker(threshold float64) *sweepTracker {
	return &sweepTracker{threshold: threshold, swept: make(map[int]bool)}
}

// drop forgets pending sweeps; they can only be confirmed on the next bar
func (s *sweepTracker) drop() {
	s.pending = s.pending[:0]
}

func (s *sweepTracker) step(bars []models.Bar, t int, atr float64, swings []models.SwingPoint) {
	b := bars[t]

	for _, i := range s.pending {
		sw := &s.sweeps[i]
		if reclaimed(sw.Direction, sw.SweptPrice, b.Close) {
			sw.ReversalConfirmed = true
			sw.ConfirmedBarIndex = t
		}
	}
	s.pending = s.pending[:0]

	margin := s.threshold * atr

	if low, ok := structure.LatestKnown(swings, models.SwingLow, t); ok && !s.swept[low.BarIndex] {
		if low.Price-b.Low >= margin && b.Low < low.Price {
			s.record(low, models.Bullish, t, b.Close)
		}
	}
	if high, ok := structure.LatestKnown(swings, models.SwingHigh, t); ok && !s.swept[high.BarIndex] {
		if b.High-high.Price >= margin && b.High > high.Price {
			s.record(high, models.Bearish, t, b.Close)
		}
	}
}

func (s *sweepTracker) record(ref models.SwingPoint, dir models.Direction, t int, c float64) {
	s.swept[ref.BarIndex] = true
	sw := models.LiquiditySweep{
		SweptPrice:        ref.Price,
		Direction:         dir,
		BarIndex:          t,
		ConfirmedBarIndex: -1,
		Reference:         ref,
	}
	if reclaimed(dir, ref.Price, c) {
		sw.ReversalConfirmed = true
		sw.ConfirmedBarIndex = t
		s.sweeps = append(s.sweeps, sw)
		return
	}
	s.sweeps = append(s.sweeps, sw)
	s.pending = append(s.pending, len(s.sweeps)-1)
}

// reclaimed reports a close back across the swept level. Sweeping lows is a
// bullish reversal, sweeping highs a bearish one.
func reclaimed(dir models.Direction, level, c float64) bool {
	if dir == models.Bullish {
		return c > level
	}
	return c < level
}
