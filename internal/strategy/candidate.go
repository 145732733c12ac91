package strategy

import (
	"github.com/Alias1177/StructureScanner/internal/anomaly"
	"github.com/Alias1177/StructureScanner/internal/patterns"
	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/internal/zones"
	"github.com/Alias1177/StructureScanner/models"
)

type base struct {
	params Params
}

// setup is a detector's raw trade idea before validation and enrichment
type setup struct {
	t          int
	side       models.Side
	entry      float64
	stop       float64
	target     float64 // 0 projects RewardRatio times the risk
	signalType string
	factors    []models.Factor
}

// emit validates levels and attaches the shared context factors. Setups
// with non-positive risk or reward are dropped.
func (b base) emit(ctx *Context, id ID, s setup) (models.SignalCandidate, bool) {
	l := risk.Levels{Entry: s.entry, Stop: s.stop, Target: s.target}
	if l.Target == 0 {
		l.Target = risk.TargetFor(s.entry, s.stop, b.params.RewardRatio)
	}
	if !risk.Valid(l, s.side) {
		return models.SignalCandidate{}, false
	}

	return models.SignalCandidate{
		Symbol:     ctx.Symbol,
		Timeframe:  ctx.Timeframe,
		Side:       s.side,
		Entry:      l.Entry,
		Stop:       l.Stop,
		Target:     l.Target,
		Factors:    models.NewFactorSet(s.factors...).With(b.context(ctx, s.t, s.side, s.entry)...),
		StrategyID: string(id),
		SignalType: s.signalType,
		BarIndex:   s.t,
	}, true
}

// context returns the factors every candidate gets from the shared analysis
func (b base) context(ctx *Context, t int, side models.Side, price float64) []models.Factor {
	var out []models.Factor
	dir := side.Direction()

	if band := ctx.band(t); band.Valid {
		switch band.Classify(price) {
		case models.Discount:
			out = append(out, models.FactorDiscount)
		case models.Premium:
			out = append(out, models.FactorPremium)
		default:
			out = append(out, models.FactorEquilibrium)
		}
	}

	if atr, ok := ctx.atr(t); ok {
		if len(zones.PoolsNear(ctx.Pools, t, price, b.params.PoolProximityATR*atr)) > 0 {
			out = append(out, models.FactorEqualLevels)
		}
	}

	if htf := ctx.htfTrend(t); htf != models.TrendNeutral && models.Direction(htf) == dir {
		out = append(out, models.FactorMTFAligned)
	}

	if anomaly.At(ctx.Bars, ctx.Series, t, b.params.Anomaly).Has(anomaly.VolumeSpike) {
		out = append(out, models.FactorVolumeSpike)
	}

	switch tr := ctx.Structure.TrendAt(t); {
	case tr == models.TrendNeutral:
	case models.Direction(tr) == dir:
		out = append(out, models.FactorTrendAligned)
	default:
		out = append(out, models.FactorCounterTrend)
	}

	if patterns.Confirms(ctx.Bars, t, dir) {
		out = append(out, models.FactorCandlePattern)
	}
	return out
}

// sides lists both sides in output order
var sides = []models.Side{models.Long, models.Short}
