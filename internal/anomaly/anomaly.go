package anomaly

import (
	"math"

	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/models"
)

// Type names the unusual condition seen on a bar
type Type string

const (
	None        Type = "NONE"
	PriceSpike  Type = "PRICE_SPIKE"
	VolumeSpike Type = "VOLUME_SPIKE"
	Gap         Type = "GAP"
)

// Thresholds for flagging a bar
type Thresholds struct {
	PriceSpikeATR float64 // close-to-close move in ATRs
	VolumeMult    float64 // volume over its moving average
	GapATR        float64 // open gap in ATRs
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceSpikeATR: 3.0,
		VolumeMult:    1.5,
		GapATR:        1.0,
	}
}

// Report describes bar t against its recent baseline
type Report struct {
	Types       []Type  `json:"types"`
	Score       float64 `json:"score"`
	VolumeRatio float64 `json:"volume_ratio"`
	MoveATR     float64 `json:"move_atr"`
	GapATR      float64 `json:"gap_atr"`
}

// Has reports whether typ was flagged
func (r Report) Has(typ Type) bool {
	for _, t := range r.Types {
		if t == typ {
			return true
		}
	}
	return false
}

// At checks bar t for price spikes, volume spikes and gaps. Bars without a
// defined ATR or volume baseline only get the checks their data allows.
func At(bars []models.Bar, series *indicators.Series, t int, th Thresholds) Report {
	r := Report{}
	if t < 1 || t >= len(bars) {
		return r
	}
	current, prev := bars[t], bars[t-1]

	if atr := series.ATR[t]; indicators.Defined(atr) && atr > 0 {
		r.MoveATR = math.Abs(current.Close-prev.Close) / atr
		if r.MoveATR > th.PriceSpikeATR {
			r.Types = append(r.Types, PriceSpike)
			r.Score = math.Min(r.MoveATR/th.PriceSpikeATR, 1.0)
		}

		gap := 0.0
		if current.Low > prev.Close {
			gap = current.Low - prev.Close
		} else if current.High < prev.Close {
			gap = prev.Close - current.High
		}
		r.GapATR = gap / atr
		if r.GapATR > th.GapATR {
			r.Types = append(r.Types, Gap)
			r.Score = math.Min(r.Score+0.15, 1.0)
		}
	}

	if avg := series.VolumeSMA[t]; indicators.Defined(avg) && avg > 0 && current.Volume > 0 {
		r.VolumeRatio = current.Volume / avg
		if r.VolumeRatio >= th.VolumeMult {
			r.Types = append(r.Types, VolumeSpike)
			r.Score = math.Min(r.Score+0.2, 1.0)
		}
	}

	return r
}
