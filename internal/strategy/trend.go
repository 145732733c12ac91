package strategy

import (
	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/models"
)

// trendPullback buys a dip to the fast EMA inside a stacked, strong trend
type trendPullback struct{ base }

func (d *trendPullback) ID() ID { return TrendPullback }

func (d *trendPullback) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	s := ctx.Series

	for t := ctx.start(0); t < len(ctx.Bars); t++ {
		fast, mid, slow, adx := s.EMAFast[t], s.EMAMid[t], s.EMASlow[t], s.ADX[t]
		if !indicators.AllDefined(fast, mid, slow, adx) || adx < p.ADXThreshold {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}
		bar := ctx.Bars[t]

		var (
			side  models.Side
			level float64
		)
		switch {
		case fast > mid && mid > slow && bar.Low <= fast && bar.Close > mid && bar.IsBullish():
			side, level = models.Long, min(bar.Low, mid)
		case fast < mid && mid < slow && bar.High >= fast && bar.Close < mid && bar.IsBearish():
			side, level = models.Short, max(bar.High, mid)
		default:
			continue
		}

		c, ok := d.emit(ctx, TrendPullback, setup{
			t:          t,
			side:       side,
			entry:      bar.Close,
			stop:       risk.BufferedStop(level, p.StopBufferATR*atr, side),
			signalType: TypeContinuation,
			factors:    []models.Factor{models.FactorADXStrong},
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// momentumBurst trades the fast EMA crossing the mid EMA while RSI confirms
// momentum without being stretched
type momentumBurst struct{ base }

func (d *momentumBurst) ID() ID { return MomentumBurst }

func (d *momentumBurst) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	s := ctx.Series

	for t := ctx.start(1); t < len(ctx.Bars); t++ {
		if !indicators.AllDefined(s.EMAFast[t-1], s.EMAMid[t-1], s.EMAFast[t], s.EMAMid[t], s.RSI[t]) {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}
		rsi := s.RSI[t]

		var side models.Side
		switch {
		case s.EMAFast[t-1] <= s.EMAMid[t-1] && s.EMAFast[t] > s.EMAMid[t] && rsi > 50 && rsi < p.RSIOverbought:
			side = models.Long
		case s.EMAFast[t-1] >= s.EMAMid[t-1] && s.EMAFast[t] < s.EMAMid[t] && rsi < 50 && rsi > p.RSIOversold:
			side = models.Short
		default:
			continue
		}

		entry := ctx.Bars[t].Close
		c, ok := d.emit(ctx, MomentumBurst, setup{
			t:          t,
			side:       side,
			entry:      entry,
			stop:       risk.ATRStop(entry, atr, p.StopATR, side),
			signalType: TypeMomentum,
			factors:    []models.Factor{models.FactorEMACross},
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}
