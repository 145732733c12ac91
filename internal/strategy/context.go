package strategy

import (
	"github.com/Alias1177/StructureScanner/internal/imbalance"
	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/models"
)

// Context is everything the detectors may read for one window
type Context struct {
	Symbol    string
	Timeframe string

	Bars      []models.Bar
	Series    *indicators.Series
	Swings    []models.SwingPoint
	Structure structure.Analysis
	Bands     []models.PriceBand
	Pools     []models.LiquidityPool
	Imbalance imbalance.Result

	// HTFTrend is the higher-timeframe trend known at each bar
	HTFTrend []models.Trend

	// From is the first bar that may emit
	From int
}

// start returns the first bar index a detector needing warmup bars of
// history should look at
func (c *Context) start(warmup int) int {
	return max(c.From, warmup)
}

// atr returns the ATR at t and whether it is usable
func (c *Context) atr(t int) (float64, bool) {
	if t < 0 || t >= len(c.Series.ATR) {
		return 0, false
	}
	v := c.Series.ATR[t]
	return v, indicators.Defined(v) && v > 0
}

func (c *Context) band(t int) models.PriceBand {
	if t < 0 || t >= len(c.Bands) {
		return models.PriceBand{}
	}
	return c.Bands[t]
}

func (c *Context) htfTrend(t int) models.Trend {
	if t < 0 || t >= len(c.HTFTrend) {
		return models.TrendNeutral
	}
	return c.HTFTrend[t]
}

// structureFactor maps a structure event kind to its factor
func structureFactor(kind models.StructureKind) models.Factor {
	if kind == models.CHoCH {
		return models.FactorCHoCH
	}
	return models.FactorBOS
}

// zoneFactor maps a zone kind to its factor
func zoneFactor(kind models.ZoneKind) models.Factor {
	if kind == models.OrderBlock {
		return models.FactorOrderBlock
	}
	return models.FactorFVG
}

// fresh reports that no bar between the zone forming and t touched it
func fresh(bars []models.Bar, z models.Zone, t int) bool {
	for i := z.FormedAt + 1; i < t; i++ {
		if z.Touches(bars[i]) {
			return false
		}
	}
	return true
}

// recentSweep reports a confirmed sweep in dir within the last n bars
func (c *Context) recentSweep(t, n int, dir models.Direction) bool {
	for i := max(t-n, 0); i <= t; i++ {
		if _, ok := c.Imbalance.ConfirmedSweepAt(i, dir); ok {
			return true
		}
	}
	return false
}
