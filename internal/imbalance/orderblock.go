package imbalance

import (
	"math"

	"github.com/Alias1177/StructureScanner/internal/zones"
	"github.com/Alias1177/StructureScanner/models"
)

// isDisplacement reports a wide, non-doji bar
func (d *Detector) isDisplacement(b models.Bar, atr float64) bool {
	rng := b.Range()
	if rng <= 0 || rng < d.params.DisplacementATR*atr {
		return false
	}
	return b.Body() >= d.params.DojiBodyRatio*rng
}

// orderBlockAt looks for a displacement on bar t and returns the zone of the
// last opposing bar before it
func (d *Detector) orderBlockAt(bars []models.Bar, t int, atr float64, band models.PriceBand) (models.Zone, bool) {
	disp := bars[t]
	if !d.isDisplacement(disp, atr) {
		return models.Zone{}, false
	}
	dir := models.Bullish
	if disp.IsBearish() {
		dir = models.Bearish
	}

	stop := max(0, t-d.params.OrderBlockLookback)
	for j := t - 1; j >= stop; j-- {
		b := bars[j]
		opposing := (dir == models.Bullish && b.IsBearish()) || (dir == models.Bearish && b.IsBullish())
		if !opposing {
			continue
		}

		top, bottom := b.High, b.Low
		if d.params.SwapHighVolatilityExtremes && b.Range() >= d.params.HighVolatilityATR*atr {
			top, bottom = b.BodyTop(), b.BodyBottom()
		}

		return models.Zone{
			Kind:           models.OrderBlock,
			Top:            top,
			Bottom:         bottom,
			Direction:      dir,
			OriginBarIndex: j,
			FormedAt:       t,
			Strength:       d.orderBlockStrength(disp, atr, top, bottom, dir, band),
		}, true
	}
	return models.Zone{}, false
}

// orderBlockStrength mixes displacement size with where the block sits in the
// swing range. A bullish block deep in discount and a bearish block high in
// premium score best.
func (d *Detector) orderBlockStrength(disp models.Bar, atr, top, bottom float64, dir models.Direction, band models.PriceBand) float64 {
	threshold := math.Max(d.params.DisplacementATR*atr, 1e-10)
	dispScore := math.Min(1, disp.Range()/(2*threshold))

	pos := zones.Position(band, (top+bottom)/2)
	if band.Valid && dir == models.Bullish {
		pos = 1 - pos
	}
	return 0.5*dispScore + 0.5*pos
}
