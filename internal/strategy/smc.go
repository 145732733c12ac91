package strategy

import (
	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/models"
)

// smcStructure trades the first retrace into an active order block or fair
// value gap shortly after a structure break in the same direction
type smcStructure struct{ base }

func (d *smcStructure) ID() ID { return SMCStructure }

func (d *smcStructure) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params

	for t := ctx.start(1); t < len(ctx.Bars); t++ {
		ev, ok := ctx.Structure.LastEventBefore(t)
		if !ok || t-ev.BarIndex > p.StructureRecency {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}
		z, ok := retrace(ctx, t, ev.Direction)
		if !ok {
			continue
		}

		side := models.SideOf(ev.Direction)
		level := z.Bottom
		if side == models.Short {
			level = z.Top
		}

		factors := []models.Factor{structureFactor(ev.Kind), zoneFactor(z.Kind)}
		if fresh(ctx.Bars, z, t) {
			factors = append(factors, models.FactorFreshZone)
		}
		if ctx.recentSweep(t, p.StructureRecency, ev.Direction) {
			factors = append(factors, models.FactorSweep)
		}

		typ := TypeContinuation
		if ev.Kind == models.CHoCH {
			typ = TypeReversal
		}

		c, ok := d.emit(ctx, SMCStructure, setup{
			t:          t,
			side:       side,
			entry:      ctx.Bars[t].Close,
			stop:       risk.BufferedStop(level, p.StopBufferATR*atr, side),
			signalType: typ,
			factors:    factors,
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// retrace returns the strongest active zone in dir that bar t enters after
// bar t-1 stayed outside it
func retrace(ctx *Context, t int, dir models.Direction) (models.Zone, bool) {
	var (
		best  models.Zone
		found bool
	)
	bar, prev := ctx.Bars[t], ctx.Bars[t-1]
	for _, z := range ctx.Imbalance.Zones.ActiveAt(t) {
		if z.Direction != dir || z.FormedAt >= t {
			continue
		}
		if !z.Touches(bar) || z.Touches(prev) {
			continue
		}
		if !found || z.Strength > best.Strength {
			best, found = z, true
		}
	}
	return best, found
}

// mtfConfluence trades a structure break that agrees with both the current
// structure trend and the higher-timeframe trend
type mtfConfluence struct{ base }

func (d *mtfConfluence) ID() ID { return MTFConfluence }

func (d *mtfConfluence) Detect(ctx *Context) []models.SignalCandidate {
	var out []models.SignalCandidate
	p := d.params

	for t := ctx.start(0); t < len(ctx.Bars); t++ {
		ev, ok := ctx.Structure.EventAt(t)
		if !ok {
			continue
		}
		trend := models.Trend(ev.Direction)
		if ctx.htfTrend(t) != trend || ctx.Structure.TrendAt(t) != trend {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}

		side := models.SideOf(ev.Direction)
		entry := ctx.Bars[t].Close
		stop := risk.ATRStop(entry, atr, p.StopATR, side)

		// protective swing on the other side of the break
		kind := models.SwingLow
		if side == models.Short {
			kind = models.SwingHigh
		}
		if s, ok := structure.LatestKnown(ctx.Swings, kind, t); ok {
			if candidate := risk.BufferedStop(s.Price, p.StopBufferATR*atr, side); risk.Risk(risk.Levels{Entry: entry, Stop: candidate}, side) > 0 {
				stop = candidate
			}
		}

		c, ok := d.emit(ctx, MTFConfluence, setup{
			t:          t,
			side:       side,
			entry:      entry,
			stop:       stop,
			signalType: TypeContinuation,
			factors:    []models.Factor{structureFactor(ev.Kind), models.FactorMTFAligned},
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}
