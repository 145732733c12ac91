package structure

import (
	"github.com/Alias1177/StructureScanner/models"
)

// DetectSwings finds confirmed swing highs and lows.
//
// Bar i is a swing high when its high is strictly above every high in
// [i-lookback, i) and no high in (i, i+lookback] exceeds it, so of two equal
// highs inside one window the earlier bar wins. Lows are symmetric. A bar
// without lookback trailing bars is unconfirmed and left out.
//
// The result strictly alternates kind in bar order. It is the reported view
// of SwingHistory; bar-by-bar consumers read the history instead.
func DetectSwings(bars []models.Bar, lookback int) []models.SwingPoint {
	return Alternating(SwingHistory(bars, lookback))
}

// SwingHistory returns every accepted swing in confirmation order. When a
// strictly more extreme same-kind swing follows, the earlier one stays in
// the history with SupersededAt set to the successor's ConfirmedAt, so the
// list only ever grows as bars arrive.
func SwingHistory(bars []models.Bar, lookback int) []models.SwingPoint {
	if lookback < 1 || len(bars) < 2*lookback+1 {
		return nil
	}

	var history []models.SwingPoint
	for i := lookback; i+lookback < len(bars); i++ {
		high := isSwingHigh(bars, i, lookback)
		low := isSwingLow(bars, i, lookback)

		switch {
		case high && low:
			// outside bar: take the kind that continues the alternation
			kind := models.SwingHigh
			if n := len(history); n > 0 && history[n-1].Kind == models.SwingHigh {
				kind = models.SwingLow
			}
			history = push(history, newSwing(bars, i, kind, lookback))
		case high:
			history = push(history, newSwing(bars, i, models.SwingHigh, lookback))
		case low:
			history = push(history, newSwing(bars, i, models.SwingLow, lookback))
		}
	}
	return history
}

// Alternating drops superseded swings, leaving the strictly alternating list
func Alternating(history []models.SwingPoint) []models.SwingPoint {
	var out []models.SwingPoint
	for _, s := range history {
		if s.SupersededAt == 0 {
			out = append(out, s)
		}
	}
	return out
}

func isSwingHigh(bars []models.Bar, i, lookback int) bool {
	h := bars[i].High
	for j := i - lookback; j < i; j++ {
		if bars[j].High >= h {
			return false
		}
	}
	for j := i + 1; j <= i+lookback; j++ {
		if bars[j].High > h {
			return false
		}
	}
	return true
}

func isSwingLow(bars []models.Bar, i, lookback int) bool {
	l := bars[i].Low
	for j := i - lookback; j < i; j++ {
		if bars[j].Low <= l {
			return false
		}
	}
	for j := i + 1; j <= i+lookback; j++ {
		if bars[j].Low < l {
			return false
		}
	}
	return true
}

func newSwing(bars []models.Bar, i int, kind models.SwingKind, lookback int) models.SwingPoint {
	price := bars[i].High
	if kind == models.SwingLow {
		price = bars[i].Low
	}
	return models.SwingPoint{
		BarIndex:    i,
		Price:       price,
		Kind:        kind,
		Confirmed:   true,
		ConfirmedAt: i + lookback,
	}
}

// push appends p when it alternates with the last swing. A same-kind
// successor is kept only when strictly more extreme and then supersedes the
// previous point from its own confirmation bar on.
func push(history []models.SwingPoint, p models.SwingPoint) []models.SwingPoint {
	n := len(history)
	if n == 0 || history[n-1].Kind != p.Kind {
		return append(history, p)
	}
	last := history[n-1]
	if (p.Kind == models.SwingHigh && p.Price > last.Price) ||
		(p.Kind == models.SwingLow && p.Price < last.Price) {
		history[n-1].SupersededAt = p.ConfirmedAt
		return append(history, p)
	}
	return history
}

// Split separates swings by kind preserving order
func Split(swings []models.SwingPoint) (highs, lows []models.SwingPoint) {
	for _, s := range swings {
		if s.Kind == models.SwingHigh {
			highs = append(highs, s)
		} else {
			lows = append(lows, s)
		}
	}
	return highs, lows
}

// LatestKnown returns the most recent swing of kind that is confirmed and not
// yet superseded at bar t, as it was known then. The bool is false when none
// is known yet.
func LatestKnown(swings []models.SwingPoint, kind models.SwingKind, t int) (models.SwingPoint, bool) {
	for i := len(swings) - 1; i >= 0; i-- {
		s := swings[i]
		if s.Kind != kind || s.ConfirmedAt > t {
			continue
		}
		if s.SupersededAt != 0 && s.SupersededAt <= t {
			continue
		}
		s.SupersededAt = 0
		return s, true
	}
	return models.SwingPoint{}, false
}
