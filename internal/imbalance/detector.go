package imbalance

import (
	"fmt"

	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/models"
)

// Params tunes the order block, fair value gap and sweep detectors
type Params struct {
	DisplacementATR            float64
	OrderBlockLookback         int
	HighVolatilityATR          float64
	SwapHighVolatilityExtremes bool
	DojiBodyRatio              float64
	MinGapATR                  float64
	MaxZoneAge                 int
	SweepATR                   float64
}

func DefaultParams() Params {
	return Params{
		DisplacementATR:            2.0,
		OrderBlockLookback:         10,
		HighVolatilityATR:          2.0,
		SwapHighVolatilityExtremes: true,
		DojiBodyRatio:              0.1,
		MinGapATR:                  0,
		MaxZoneAge:                 50,
		SweepATR:                   0.1,
	}
}

// Result holds everything the detectors found over one window
type Result struct {
	Zones  *ZoneLog
	Sweeps []models.LiquiditySweep
}

// ConfirmedSweepAt returns a sweep whose reversal was confirmed on bar t in
// the given direction
func (r Result) ConfirmedSweepAt(t int, dir models.Direction) (models.LiquiditySweep, bool) {
	for _, s := range r.Sweeps {
		if s.ReversalConfirmed && s.ConfirmedBarIndex == t && s.Direction == dir {
			return s, true
		}
	}
	return models.LiquiditySweep{}, false
}

// Detector folds bars forward building zones and sweeps
type Detector struct {
	params Params
}

func NewDetector(p Params) *Detector {
	return &Detector{params: p}
}

// Scan runs all three detectors over the window. bands may be nil.
func (d *Detector) Scan(bars []models.Bar, atr []float64, swings []models.SwingPoint, bands []models.PriceBand) (Result, error) {
	zl := NewZoneLog()
	sweeper := newSweepTracker(d.params.SweepATR)

	for t := range bars {
		if err := zl.step(bars, t, d.params.MaxZoneAge); err != nil {
			return Result{}, fmt.Errorf("zone lifecycle: %w", err)
		}

		if t >= len(atr) || !indicators.Defined(atr[t]) {
			sweeper.drop()
			continue
		}

		var band models.PriceBand
		if t < len(bands) {
			band = bands[t]
		}
		if z, ok := d.orderBlockAt(bars, t, atr[t], band); ok {
			zl.Add(z)
		}
		if z, ok := d.fairValueGapAt(bars, t, atr[t]); ok {
			zl.Add(z)
		}
		sweeper.step(bars, t, atr[t], swings)
	}

	return Result{Zones: zl, Sweeps: sweeper.sweeps}, nil
}
