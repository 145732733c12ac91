package imbalance

import (
	"github.com/Alias1177/StructureScanner/models"
)

// fairValueGapAt checks the three bars ending at t for a gap left by the
// middle bar. The zone's origin is the middle bar.
func (d *Detector) fairValueGapAt(bars []models.Bar, t int, atr float64) (models.Zone, bool) {
	if t < 2 {
		return models.Zone{}, false
	}
	before, after := bars[t-2], bars[t]
	minGap := d.params.MinGapATR * atr

	z := models.Zone{
		Kind:           models.FairValueGap,
		OriginBarIndex: t - 1,
		FormedAt:       t,
	}
	switch {
	case after.Low > before.High:
		z.Direction = models.Bullish
		z.Top, z.Bottom = after.Low, before.High
	case after.High < before.Low:
		z.Direction = models.Bearish
		z.Top, z.Bottom = before.Low, after.High
	default:
		return models.Zone{}, false
	}

	gap := z.Top - z.Bottom
	if gap < minGap {
		return models.Zone{}, false
	}
	if atr > 0 {
		z.Strength = min(1, gap/atr)
	}
	return z, true
}
