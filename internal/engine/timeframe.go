package engine

import (
	"time"

	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/models"
)

// Resample groups every k consecutive bars into one. A trailing incomplete
// group is dropped.
func Resample(bars []models.Bar, k int) []models.Bar {
	if k < 1 {
		return nil
	}
	out := make([]models.Bar, 0, len(bars)/k)
	for start := 0; start+k <= len(bars); start += k {
		group := bars[start : start+k]
		b := models.Bar{
			Timestamp: group[0].Timestamp,
			Open:      group[0].Open,
			High:      group[0].High,
			Low:       group[0].Low,
			Close:     group[k-1].Close,
			Symbol:    group[0].Symbol,
			Timeframe: models.HigherTimeframeLabel(group[0].Timeframe, k),
		}
		for _, g := range group {
			b.High = max(b.High, g.High)
			b.Low = min(b.Low, g.Low)
			b.Volume += g.Volume
		}
		out = append(out, b)
	}
	return out
}

// higherTimeframeTrend returns, for every bar, the higher-timeframe structure
// trend as of the last higher-timeframe bar that had closed by then
func (e *Engine) higherTimeframeTrend(bars, htf []models.Bar) []models.Trend {
	out := make([]models.Trend, len(bars))
	for i := range out {
		out[i] = models.TrendNeutral
	}

	if len(htf) == 0 {
		k := e.cfg.HTFMultiplier
		if k < 2 {
			return out
		}
		resampled := Resample(bars, k)
		analysis := e.analyzer.Run(resampled, structure.SwingHistory(resampled, e.cfg.SwingLookback))
		for t := range bars {
			if j := (t+1)/k - 1; j >= 0 {
				out[t] = analysis.TrendAt(j)
			}
		}
		return out
	}

	analysis := e.analyzer.Run(htf, structure.SwingHistory(htf, e.cfg.SwingLookback))
	baseSpan, htfSpan := barSpan(bars), barSpan(htf)
	j := -1
	for t, b := range bars {
		closed := b.Timestamp.Add(baseSpan)
		for j+1 < len(htf) && !htf[j+1].Timestamp.Add(htfSpan).After(closed) {
			j++
		}
		if j >= 0 {
			out[t] = analysis.TrendAt(j)
		}
	}
	return out
}

// barSpan is the bar duration from the timeframe label, falling back to the
// smallest gap between timestamps
func barSpan(bars []models.Bar) time.Duration {
	if len(bars) == 0 {
		return 0
	}
	if d, ok := models.TimeframeDuration(bars[0].Timeframe); ok {
		return d
	}
	var span time.Duration
	for i := 1; i < len(bars); i++ {
		if d := bars[i].Timestamp.Sub(bars[i-1].Timestamp); d > 0 && (span == 0 || d < span) {
			span = d
		}
	}
	return span
}
