package strategy

import (
	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/models"
)

// rangeBreakout trades the first close outside the prior N-bar range
type rangeBreakout struct{ base }

func (d *rangeBreakout) ID() ID { return RangeBreakout }

func (d *rangeBreakout) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	n := p.BreakoutLookback
	if n < 1 {
		return nil
	}
	bars := ctx.Bars

	for t := ctx.start(n + 1); t < len(bars); t++ {
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}
		high, low := extremes(bars[t-n : t])
		prevHigh, prevLow := extremes(bars[t-n-1 : t-1])

		var side models.Side
		switch {
		case bars[t].Close > high && bars[t-1].Close <= prevHigh:
			side = models.Long
		case bars[t].Close < low && bars[t-1].Close >= prevLow:
			side = models.Short
		default:
			continue
		}

		entry := bars[t].Close
		c, ok := d.emit(ctx, RangeBreakout, setup{
			t:          t,
			side:       side,
			entry:      entry,
			stop:       risk.ATRStop(entry, atr, p.StopATR, side),
			signalType: TypeBreakout,
			factors:    []models.Factor{models.FactorBreakout},
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// extremes returns the highest high and lowest low of bars
func extremes(bars []models.Bar) (high, low float64) {
	high, low = bars[0].High, bars[0].Low
	for _, b := range bars[1:] {
		high = max(high, b.High)
		low = min(low, b.Low)
	}
	return high, low
}

// volatilitySqueeze trades the bar on which Bollinger bands leave the
// Keltner channel after a squeeze
type volatilitySqueeze struct{ base }

func (d *volatilitySqueeze) ID() ID { return VolatilitySqueeze }

func squeezed(s *indicators.Series, i int) bool {
	return indicators.AllDefined(s.BBUpper[i], s.BBLower[i], s.KCUpper[i], s.KCLower[i]) &&
		s.BBUpper[i] < s.KCUpper[i] && s.BBLower[i] > s.KCLower[i]
}

func (d *volatilitySqueeze) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	s := ctx.Series
	m := max(p.MomentumLookback, 1)

	for t := ctx.start(m); t < len(ctx.Bars); t++ {
		if !squeezed(s, t-1) || squeezed(s, t) {
			continue
		}
		if !indicators.AllDefined(s.BBUpper[t], s.BBMiddle[t], s.KCUpper[t]) {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}

		c := ctx.Bars[t].Close
		momentum := c - ctx.Bars[t-m].Close

		var side models.Side
		switch {
		case c > s.BBMiddle[t] && momentum > 0:
			side = models.Long
		case c < s.BBMiddle[t] && momentum < 0:
			side = models.Short
		default:
			continue
		}

		cand, ok := d.emit(ctx, VolatilitySqueeze, setup{
			t:          t,
			side:       side,
			entry:      c,
			stop:       risk.ATRStop(c, atr, p.StopATR, side),
			signalType: TypeBreakout,
			factors:    []models.Factor{models.FactorSqueezeRelease},
		})
		if ok {
			out = append(out, cand)
		}
	}
	return out
}
