package strategy

import (
	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/models"
)

const maxBaseBars = 6

// baseZone is a cluster of tight bars left behind by a departure bar
type baseZone struct {
	top, bottom float64
}

// supplyDemand trades the first return into a demand (or supply) base
type supplyDemand struct{ base }

func (d *supplyDemand) ID() ID { return SupplyDemand }

func (d *supplyDemand) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params
	bars := ctx.Bars

	for t := ctx.start(p.MinBaseBars + 2); t < len(bars); t++ {
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}
		bar := bars[t]

		for _, side := range sides {
			z, ok := d.freshBase(ctx, t, side.Direction())
			if !ok {
				continue
			}
			level := z.bottom
			if side == models.Short {
				level = z.top
			}

			c, ok := d.emit(ctx, SupplyDemand, setup{
				t:          t,
				side:       side,
				entry:      bar.Close,
				stop:       risk.BufferedStop(level, p.StopBufferATR*atr, side),
				signalType: TypeReversal,
				factors:    []models.Factor{models.FactorFreshZone},
			})
			if ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// freshBase finds the most recent base in dir that bar t returns into for
// the first time
func (d *supplyDemand) freshBase(ctx *Context, t int, dir models.Direction) (baseZone, bool) {
	p := d.params
	bars := ctx.Bars
	bar := bars[t]
	stop := max(p.MinBaseBars, t-p.SupplyDemandLookback)

	for dep := t - 2; dep >= stop; dep-- {
		z, ok := d.baseAt(ctx, dep, dir)
		if !ok {
			continue
		}

		var entered bool
		if dir == models.Bullish {
			entered = bar.Low <= z.top && bar.Close >= z.bottom
		} else {
			entered = bar.High >= z.bottom && bar.Close <= z.top
		}
		if !entered {
			continue
		}

		untouched := true
		for i := dep + 1; i < t; i++ {
			if (dir == models.Bullish && bars[i].Low <= z.top) || (dir == models.Bearish && bars[i].High >= z.bottom) {
				untouched = false
				break
			}
		}
		if untouched {
			return z, true
		}
	}
	return baseZone{}, false
}

// baseAt checks whether bar dep departs from a base of tight bars
func (d *supplyDemand) baseAt(ctx *Context, dep int, dir models.Direction) (baseZone, bool) {
	p := d.params
	bars := ctx.Bars
	atr := ctx.Series.ATR[dep]
	if !indicators.Defined(atr) || atr <= 0 {
		return baseZone{}, false
	}

	b := bars[dep]
	if b.Range() < p.DepartureATR*atr || b.Body() < 0.5*b.Range() {
		return baseZone{}, false
	}
	if (dir == models.Bullish && !b.IsBullish()) || (dir == models.Bearish && !b.IsBearish()) {
		return baseZone{}, false
	}

	var z baseZone
	count := 0
	for i := dep - 1; i >= 0 && count < maxBaseBars; i-- {
		if bars[i].Range() > p.BaseRangeATR*atr {
			break
		}
		if count == 0 {
			z.top, z.bottom = bars[i].High, bars[i].Low
		} else {
			z.top = max(z.top, bars[i].High)
			z.bottom = min(z.bottom, bars[i].Low)
		}
		count++
	}
	if count < p.MinBaseBars {
		return baseZone{}, false
	}
	return z, true
}
