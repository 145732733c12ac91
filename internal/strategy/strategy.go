package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alias1177/StructureScanner/internal/anomaly"
	"github.com/Alias1177/StructureScanner/models"
)

// ErrUnknownStrategy is returned for an id outside the enumeration
var ErrUnknownStrategy = errors.New("unknown strategy")

// ID identifies one of the detectors
type ID string

const (
	SMCStructure       ID = "smc_structure"
	SessionKillzone    ID = "session_killzone"
	TrendPullback      ID = "trend_pullback"
	RangeBreakout      ID = "range_breakout"
	BollingerReversion ID = "bollinger_reversion"
	VolatilitySqueeze  ID = "volatility_squeeze"
	MomentumBurst      ID = "momentum_burst"
	VWAPReclaim        ID = "vwap_reclaim"
	SupplyDemand       ID = "supply_demand"
	MTFConfluence      ID = "mtf_confluence"
)

// All lists every detector in output order
var All = []ID{
	SMCStructure,
	SessionKillzone,
	TrendPullback,
	RangeBreakout,
	BollingerReversion,
	VolatilitySqueeze,
	MomentumBurst,
	VWAPReclaim,
	SupplyDemand,
	MTFConfluence,
}

// Order returns the position of id in All, or len(All) when unknown
func (id ID) Order() int {
	for i, v := range All {
		if v == id {
			return i
		}
	}
	return len(All)
}

// ParseID converts a configured name into an ID
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if id.Order() == len(All) {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
	}
	return id, nil
}

// Signal types
const (
	TypeContinuation  = "continuation"
	TypeReversal      = "reversal"
	TypeBreakout      = "breakout"
	TypeMeanReversion = "mean_reversion"
	TypeMomentum      = "momentum"
)

// Detector turns the shared analysis context into candidates. Detectors
// never compute confidence and never read each other's output.
type Detector interface {
	ID() ID
	Detect(ctx *Context) []models.SignalCandidate
}

// Params tunes all detectors
type Params struct {
	RewardRatio      float64
	StopATR          float64
	StopBufferATR    float64
	PoolProximityATR float64
	StructureRecency int

	ADXThreshold  float64
	RSIOversold   float64
	RSIOverbought float64

	BreakoutLookback int
	MomentumLookback int

	DepartureATR         float64
	BaseRangeATR         float64
	MinBaseBars          int
	SupplyDemandLookback int

	PivotProximityATR float64

	Anomaly anomaly.Thresholds
}

func DefaultParams() Params {
	return Params{
		RewardRatio:      2.0,
		StopATR:          1.5,
		StopBufferATR:    0.1,
		PoolProximityATR: 1.0,
		StructureRecency: 5,

		ADXThreshold:  20,
		RSIOversold:   30,
		RSIOverbought: 70,

		BreakoutLookback: 20,
		MomentumLookback: 5,

		DepartureATR:         1.5,
		BaseRangeATR:         0.6,
		MinBaseBars:          2,
		SupplyDemandLookback: 30,

		PivotProximityATR: 0.5,

		Anomaly: anomaly.DefaultThresholds(),
	}
}

// New builds the detector for id
func New(id ID, p Params) (Detector, error) {
	b := base{params: p}
	switch id {
	case SMCStructure:
		return &smcStructure{b}, nil
	case SessionKillzone:
		return &sessionKillzone{base: b, sessions: DefaultSessions()}, nil
	case TrendPullback:
		return &trendPullback{b}, nil
	case RangeBreakout:
		return &rangeBreakout{b}, nil
	case BollingerReversion:
		return &bollingerReversion{b}, nil
	case VolatilitySqueeze:
		return &volatilitySqueeze{b}, nil
	case MomentumBurst:
		return &momentumBurst{b}, nil
	case VWAPReclaim:
		return &vwapReclaim{b}, nil
	case SupplyDemand:
		return &supplyDemand{b}, nil
	case MTFConfluence:
		return &mtfConfluence{b}, nil
	default:
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownStrategy)
	}
}

// Build returns detectors for ids in enumeration order. An empty list
// selects all of them.
func Build(ids []ID, p Params) ([]Detector, error) {
	if len(ids) == 0 {
		ids = All
	}
	want := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if id.Order() == len(All) {
			return nil, fmt.Errorf("%q: %w", id, ErrUnknownStrategy)
		}
		want[id] = true
	}

	var out []Detector
	for _, id := range All {
		if !want[id] {
			continue
		}
		d, err := New(id, p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
