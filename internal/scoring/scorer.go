package scoring

import (
	"math"

	"github.com/Alias1177/StructureScanner/models"
)

// BaseKey is the breakdown entry for the base score
const BaseKey = "base"

// Weights is the scoring table: a base score plus one additive weight per
// factor. Negative weights penalize.
type Weights struct {
	Base    float64                   `yaml:"base"`
	Factors map[models.Factor]float64 `yaml:"factors"`
}

// DefaultWeights returns the standard table
func DefaultWeights() Weights {
	return Weights{
		Base: 40,
		Factors: map[models.Factor]float64{
			models.FactorCHoCH:          12,
			models.FactorBOS:            8,
			models.FactorOrderBlock:     10,
			models.FactorFVG:            8,
			models.FactorSweep:          10,
			models.FactorDiscount:       10,
			models.FactorPremium:        10,
			models.FactorEquilibrium:    0,
			models.FactorEqualLevels:    5,
			models.FactorMTFAligned:     10,
			models.FactorVolumeSpike:    5,
			models.FactorTrendAligned:   6,
			models.FactorCounterTrend:   -10,
			models.FactorADXStrong:      4,
			models.FactorRSIExtreme:     5,
			models.FactorEMACross:       4,
			models.FactorKillzone:       6,
			models.FactorSqueezeRelease: 6,
			models.FactorVWAPReclaim:    5,
			models.FactorPivot:          3,
			models.FactorBandReentry:    4,
			models.FactorFreshZone:      5,
			models.FactorCandlePattern:  4,
			models.FactorBreakout:       4,
		},
	}
}

// Known reports whether f has an entry in the default table
func Known(f models.Factor) bool {
	_, ok := DefaultWeights().Factors[f]
	return ok
}

// Clone returns a deep copy
func (w Weights) Clone() Weights {
	out := Weights{Base: w.Base, Factors: make(map[models.Factor]float64, len(w.Factors))}
	for f, v := range w.Factors {
		out.Factors[f] = v
	}
	return out
}

// directional factors only count for one side
var directional = map[models.Factor]models.Side{
	models.FactorDiscount: models.Long,
	models.FactorPremium:  models.Short,
}

// Scorer turns candidates into scored signals
type Scorer struct {
	weights Weights
}

func New(w Weights) *Scorer {
	return &Scorer{weights: w.Clone()}
}

// Weights returns a copy of the table in use
func (s *Scorer) Weights() Weights {
	return s.weights.Clone()
}

// Score computes confidence as base plus the weights of the candidate's
// factors, clamped to [0, 100] and rounded to two decimals. The ID is left
// for the caller to assign.
func (s *Scorer) Score(c models.SignalCandidate) models.ScoredSignal {
	breakdown := map[string]float64{BaseKey: s.weights.Base}
	total := s.weights.Base

	for _, f := range c.Factors {
		if side, ok := directional[f]; ok && side != c.Side {
			continue
		}
		w, ok := s.weights.Factors[f]
		if !ok {
			continue
		}
		breakdown[string(f)] = w
		total += w
	}

	return models.ScoredSignal{
		SignalCandidate: c,
		Confidence:      round2(clamp(total, 0, 100)),
		StructureTags:   c.Factors.Strings(),
		Breakdown:       breakdown,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
