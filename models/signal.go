package models

import "sort"

// Side of a trade signal
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Direction maps a side to the structural direction it trades with
func (s Side) Direction() Direction {
	if s == Long {
		return Bullish
	}
	return Bearish
}

// SideOf maps a structural direction to the side trading with it
func SideOf(d Direction) Side {
	if d == Bullish {
		return Long
	}
	return Short
}

// Factor names a contributing condition consumed by the scorer
type Factor string

const (
	FactorBOS            Factor = "has_bos"
	FactorCHoCH          Factor = "has_choch"
	FactorOrderBlock     Factor = "has_order_block"
	FactorFVG            Factor = "has_fvg"
	FactorSweep          Factor = "liquidity_sweep"
	FactorDiscount       Factor = "in_discount_zone"
	FactorPremium        Factor = "in_premium_zone"
	FactorEquilibrium    Factor = "in_equilibrium"
	FactorEqualLevels    Factor = "equal_levels"
	FactorMTFAligned     Factor = "multi_timeframe_aligned"
	FactorVolumeSpike    Factor = "volume_spike"
	FactorTrendAligned   Factor = "trend_aligned"
	FactorCounterTrend   Factor = "counter_trend"
	FactorADXStrong      Factor = "adx_strong"
	FactorRSIExtreme     Factor = "rsi_extreme"
	FactorEMACross       Factor = "ema_cross"
	FactorKillzone       Factor = "session_killzone"
	FactorSqueezeRelease Factor = "squeeze_release"
	FactorVWAPReclaim    Factor = "vwap_reclaim"
	FactorPivot          Factor = "pivot_confluence"
	FactorBandReentry    Factor = "band_reentry"
	FactorFreshZone      Factor = "fresh_zone"
	FactorCandlePattern  Factor = "candle_pattern"
	FactorBreakout       Factor = "range_breakout"
)

// FactorSet is a sorted, de-duplicated list of factors
type FactorSet []Factor

// NewFactorSet builds a normalized set
func NewFactorSet(factors ...Factor) FactorSet {
	var fs FactorSet
	return fs.With(factors...)
}

// With returns a new set containing the receiver's factors plus the given ones
func (fs FactorSet) With(factors ...Factor) FactorSet {
	seen := make(map[Factor]struct{}, len(fs)+len(factors))
	out := make(FactorSet, 0, len(fs)+len(factors))
	for _, f := range append(append([]Factor{}, fs...), factors...) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether f is in the set
func (fs FactorSet) Has(f Factor) bool {
	i := sort.Search(len(fs), func(i int) bool { return fs[i] >= f })
	return i < len(fs) && fs[i] == f
}

// Strings returns factor names in set order
func (fs FactorSet) Strings() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

// SignalCandidate is produced by exactly one strategy detector invocation
type SignalCandidate struct {
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Side       Side      `json:"side"`
	Entry      float64   `json:"entry"`
	Stop       float64   `json:"stop"`
	Target     float64   `json:"target"`
	Factors    FactorSet `json:"-"`
	StrategyID string    `json:"strategy_id"`
	SignalType string    `json:"signal_type"`
	BarIndex   int       `json:"bar_index"`
}

// ScoredSignal is the terminal engine output
type ScoredSignal struct {
	ID string `json:"id"`
	SignalCandidate
	Confidence    float64            `json:"confidence"`
	StructureTags []string           `json:"structure_tags"`
	Breakdown     map[string]float64 `json:"factor_breakdown"`
}
