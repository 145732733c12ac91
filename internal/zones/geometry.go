package zones

import (
	"math"
	"sort"

	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/models"
)

// Geometry splits the latest swing range into premium, equilibrium and
// discount bands and marks equal highs and lows.
type Geometry struct {
	PremiumRatio      float64
	DiscountRatio     float64
	EqualThresholdATR float64
}

// DefaultGeometry uses the 0.382 retracement on both sides
func DefaultGeometry() Geometry {
	return Geometry{
		PremiumRatio:      0.382,
		DiscountRatio:     0.382,
		EqualThresholdATR: 0.1,
	}
}

// Recompute builds the band for a swing high and swing low pair
func (g Geometry) Recompute(high, low models.SwingPoint) models.PriceBand {
	rng := math.Max(high.Price-low.Price, indicators.Epsilon)
	return models.PriceBand{
		High:           high.Price,
		Low:            low.Price,
		PremiumBottom:  high.Price - g.PremiumRatio*rng,
		DiscountTop:    low.Price + g.DiscountRatio*rng,
		SwingHighIndex: high.BarIndex,
		SwingLowIndex:  low.BarIndex,
		FormedAt:       max(high.ConfirmedAt, low.ConfirmedAt),
		Valid:          true,
	}
}

// Timeline returns the band in force at every bar. Bars before a swing high
// and a swing low are both knowable get an invalid band.
func (g Geometry) Timeline(bars []models.Bar, swings []models.SwingPoint) []models.PriceBand {
	out := make([]models.PriceBand, len(bars))
	var current models.PriceBand
	for t := range bars {
		high, okHigh := structure.LatestKnown(swings, models.SwingHigh, t)
		low, okLow := structure.LatestKnown(swings, models.SwingLow, t)
		if okHigh && okLow &&
			(!current.Valid || current.SwingHighIndex != high.BarIndex || current.SwingLowIndex != low.BarIndex) {
			current = g.Recompute(high, low)
		}
		out[t] = current
	}
	return out
}

// Position returns where price sits inside the band's range, 0 at the low
// and 1 at the high, clamped.
func Position(band models.PriceBand, price float64) float64 {
	if !band.Valid {
		return 0.5
	}
	p := indicators.SafeDiv(price-band.Low, band.High-band.Low)
	return math.Max(0, math.Min(1, p))
}

// EqualLevels pairs successive same-kind swings whose prices differ by at
// most EqualThresholdATR times the ATR at the later swing.
func (g Geometry) EqualLevels(swings []models.SwingPoint, atr []float64) []models.LiquidityPool {
	var pools []models.LiquidityPool
	highs, lows := structure.Split(swings)
	pools = append(pools, g.pair(highs, atr, models.EqualHighs)...)
	pools = append(pools, g.pair(lows, atr, models.EqualLows)...)

	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].FormedAt != pools[j].FormedAt {
			return pools[i].FormedAt < pools[j].FormedAt
		}
		return pools[i].Kind < pools[j].Kind
	})
	return pools
}

func (g Geometry) pair(points []models.SwingPoint, atr []float64, kind models.PoolKind) []models.LiquidityPool {
	var pools []models.LiquidityPool
	for i := 1; i < len(points); i++ {
		first, second := points[i-1], points[i]
		if second.BarIndex >= len(atr) || !indicators.Defined(atr[second.BarIndex]) {
			continue
		}
		if math.Abs(second.Price-first.Price) > g.EqualThresholdATR*atr[second.BarIndex] {
			continue
		}
		price := math.Max(first.Price, second.Price)
		if kind == models.EqualLows {
			price = math.Min(first.Price, second.Price)
		}
		pools = append(pools, models.LiquidityPool{
			Kind:        kind,
			Price:       price,
			FirstIndex:  first.BarIndex,
			SecondIndex: second.BarIndex,
			FormedAt:    second.ConfirmedAt,
		})
	}
	return pools
}

// PoolsNear returns pools knowable at bar t whose price lies within tolerance
// of price.
func PoolsNear(pools []models.LiquidityPool, t int, price, tolerance float64) []models.LiquidityPool {
	var out []models.LiquidityPool
	for _, p := range pools {
		if p.FormedAt <= t && math.Abs(p.Price-price) <= tolerance {
			out = append(out, p)
		}
	}
	return out
}
