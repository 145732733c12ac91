package models

import (
	"time"
)

// Bar represents a single price bar for one (symbol, timeframe) pair
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
}

// Range returns high minus low
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Body returns the absolute open/close distance
func (b Bar) Body() float64 {
	if b.Close > b.Open {
		return b.Close - b.Open
	}
	return b.Open - b.Close
}

func (b Bar) IsBullish() bool { return b.Close > b.Open }
func (b Bar) IsBearish() bool { return b.Close < b.Open }

// BodyTop and BodyBottom are the open/close-adjacent extremes
func (b Bar) BodyTop() float64 {
	if b.Open > b.Close {
		return b.Open
	}
	return b.Close
}

func (b Bar) BodyBottom() float64 {
	if b.Open < b.Close {
		return b.Open
	}
	return b.Close
}

// Direction of a structural move, zone or sweep
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Opposite returns the reverse direction
func (d Direction) Opposite() Direction {
	if d == Bullish {
		return Bearish
	}
	return Bullish
}

// Trend is the directional state carried by the structure analyzer
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// SwingKind distinguishes swing highs from swing lows
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a local price extremum
type SwingPoint struct {
	BarIndex    int       `json:"bar_index"`
	Price       float64   `json:"price"`
	Kind        SwingKind `json:"kind"`
	Confirmed   bool      `json:"confirmed"`
	ConfirmedAt int       `json:"confirmed_at"` // first bar index at which the swing is knowable

	// SupersededAt is the bar at which a more extreme same-kind swing
	// replaced this one; zero while it still stands.
	SupersededAt int `json:"superseded_at,omitempty"`
}

// StructureKind is BOS (continuation) or CHoCH (reversal)
type StructureKind string

const (
	BOS   StructureKind = "BOS"
	CHoCH StructureKind = "CHoCH"
)

// StructureEvent fires when a close crosses a confirmed swing level
type StructureEvent struct {
	Kind           StructureKind `json:"kind"`
	Direction      Direction     `json:"direction"`
	ReferenceSwing SwingPoint    `json:"reference_swing"`
	BarIndex       int           `json:"bar_index"`
}

// ZoneKind distinguishes order blocks from fair value gaps
type ZoneKind string

const (
	OrderBlock   ZoneKind = "order_block"
	FairValueGap ZoneKind = "fair_value_gap"
)

// ZoneStatus only moves forward: active -> mitigated or active -> expired
type ZoneStatus string

const (
	ZoneActive    ZoneStatus = "active"
	ZoneMitigated ZoneStatus = "mitigated"
	ZoneExpired   ZoneStatus = "expired"
)

// Zone is an order block or a fair value gap
type Zone struct {
	Kind           ZoneKind   `json:"kind"`
	Top            float64    `json:"top"`
	Bottom         float64    `json:"bottom"`
	Direction      Direction  `json:"direction"`
	OriginBarIndex int        `json:"origin_bar_index"`
	FormedAt       int        `json:"formed_at"`
	Status         ZoneStatus `json:"status"`
	StatusBarIndex int        `json:"status_bar_index"`
	Strength       float64    `json:"strength"`
}

// Contains reports whether price lies inside the zone (edges inclusive)
func (z Zone) Contains(price float64) bool {
	return price >= z.Bottom && price <= z.Top
}

// Touches reports whether a bar's range overlaps the zone
func (z Zone) Touches(b Bar) bool {
	return b.Low <= z.Top && b.High >= z.Bottom
}

// LiquiditySweep is a wick beyond a prior swing extreme
type LiquiditySweep struct {
	SweptPrice        float64    `json:"swept_price"`
	Direction         Direction  `json:"direction"`
	BarIndex          int        `json:"bar_index"`
	ReversalConfirmed bool       `json:"reversal_confirmed"`
	ConfirmedBarIndex int        `json:"confirmed_bar_index"`
	Reference         SwingPoint `json:"reference"`
}

// BandZone is the part of a swing range a price falls into
type BandZone string

const (
	Premium     BandZone = "premium"
	Equilibrium BandZone = "equilibrium"
	Discount    BandZone = "discount"
)

// PriceBand holds premium/equilibrium/discount boundaries of the latest swing range
type PriceBand struct {
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	PremiumBottom  float64 `json:"premium_bottom"`
	DiscountTop    float64 `json:"discount_top"`
	SwingHighIndex int     `json:"swing_high_index"`
	SwingLowIndex  int     `json:"swing_low_index"`
	FormedAt       int     `json:"formed_at"`
	Valid          bool    `json:"valid"`
}

// Classify places price into premium, equilibrium or discount
func (p PriceBand) Classify(price float64) BandZone {
	switch {
	case price >= p.PremiumBottom:
		return Premium
	case price <= p.DiscountTop:
		return Discount
	default:
		return Equilibrium
	}
}

// PoolKind marks equal highs or equal lows
type PoolKind string

const (
	EqualHighs PoolKind = "equal_highs"
	EqualLows  PoolKind = "equal_lows"
)

// LiquidityPool marks two extrema close enough to be treated as equal
type LiquidityPool struct {
	Kind        PoolKind `json:"kind"`
	Price       float64  `json:"price"`
	FirstIndex  int      `json:"first_index"`
	SecondIndex int      `json:"second_index"`
	FormedAt    int      `json:"formed_at"`
}
