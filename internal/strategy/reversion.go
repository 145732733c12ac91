package strategy

import (
	"math"

	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/models"
)

// bollingerReversion fades a close outside the bands once price closes back
// inside, targeting the middle band
type bollingerReversion struct{ base }

func (d *bollingerReversion) ID() ID { return BollingerReversion }

func (d *bollingerReversion) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	s := ctx.Series
	bars := ctx.Bars

	for t := ctx.start(1); t < len(bars); t++ {
		if !indicators.AllDefined(s.BBUpper[t-1], s.BBLower[t-1], s.BBUpper[t], s.BBMiddle[t], s.BBLower[t], s.RSI[t-1], s.RSI[t]) {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}
		prev, cur := bars[t-1], bars[t]

		var (
			side  models.Side
			level float64
		)
		switch {
		case prev.Close < s.BBLower[t-1] && cur.Close > s.BBLower[t] && cur.Close < s.BBMiddle[t] &&
			math.Min(s.RSI[t-1], s.RSI[t]) <= p.RSIOversold:
			side, level = models.Long, min(prev.Low, cur.Low)
		case prev.Close > s.BBUpper[t-1] && cur.Close < s.BBUpper[t] && cur.Close > s.BBMiddle[t] &&
			math.Max(s.RSI[t-1], s.RSI[t]) >= p.RSIOverbought:
			side, level = models.Short, max(prev.High, cur.High)
		default:
			continue
		}

		c, ok := d.emit(ctx, BollingerReversion, setup{
			t:          t,
			side:       side,
			entry:      cur.Close,
			stop:       risk.BufferedStop(level, p.StopBufferATR*atr, side),
			target:     s.BBMiddle[t],
			signalType: TypeMeanReversion,
			factors:    []models.Factor{models.FactorBandReentry, models.FactorRSIExtreme},
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// vwapReclaim trades a close back across the session VWAP
type vwapReclaim struct{ base }

func (d *vwapReclaim) ID() ID { return VWAPReclaim }

func (d *vwapReclaim) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	s := ctx.Series
	bars := ctx.Bars

	for t := ctx.start(1); t < len(bars); t++ {
		prev, cur := bars[t-1], bars[t]
		if !sameSession(prev, cur) {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}

		var (
			side  models.Side
			level float64
		)
		switch {
		case prev.Close < s.VWAP[t-1] && cur.Close > s.VWAP[t] && cur.IsBullish():
			side, level = models.Long, min(prev.Low, cur.Low)
		case prev.Close > s.VWAP[t-1] && cur.Close < s.VWAP[t] && cur.IsBearish():
			side, level = models.Short, max(prev.High, cur.High)
		default:
			continue
		}

		factors := []models.Factor{models.FactorVWAPReclaim}
		if nearPivot(s, t, side, level, p.PivotProximityATR*atr) {
			factors = append(factors, models.FactorPivot)
		}

		c, ok := d.emit(ctx, VWAPReclaim, setup{
			t:          t,
			side:       side,
			entry:      cur.Close,
			stop:       risk.BufferedStop(level, p.StopBufferATR*atr, side),
			signalType: TypeReversal,
			factors:    factors,
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func sameSession(a, b models.Bar) bool {
	ay, am, ad := a.Timestamp.UTC().Date()
	by, bm, bd := b.Timestamp.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// nearPivot reports the reclaim extreme resting on the pivot or on the
// support (long) or resistance (short) level
func nearPivot(s *indicators.Series, t int, side models.Side, extreme, tolerance float64) bool {
	if !indicators.Defined(s.Pivot[t]) {
		return false
	}
	level := s.S1[t]
	if side == models.Short {
		level = s.R1[t]
	}
	return math.Abs(extreme-s.Pivot[t]) <= tolerance || math.Abs(extreme-level) <= tolerance
}
