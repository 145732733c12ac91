package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/Alias1177/StructureScanner/models"
)

// Epsilon floors every denominator a ratio is taken over
const Epsilon = 1e-10

// Params holds indicator lookbacks
type Params struct {
	ATRPeriod    int
	EMAFast      int
	EMAMid       int
	EMASlow      int
	VolumePeriod int
	RSIPeriod    int
	BBPeriod     int
	BBStdDev     float64
	KCPeriod     int
	KCMult       float64
	ADXPeriod    int
}

// DefaultParams returns the standard lookbacks
func DefaultParams() Params {
	return Params{
		ATRPeriod:    14,
		EMAFast:      9,
		EMAMid:       21,
		EMASlow:      50,
		VolumePeriod: 20,
		RSIPeriod:    14,
		BBPeriod:     20,
		BBStdDev:     2.0,
		KCPeriod:     20,
		KCMult:       1.5,
		ADXPeriod:    14,
	}
}

// Series holds indicator values aligned 1:1 with the bar sequence.
// Warm-up bars hold NaN.
type Series struct {
	ATR       []float64
	EMAFast   []float64
	EMAMid    []float64
	EMASlow   []float64
	VolumeSMA []float64
	RSI       []float64
	BBUpper   []float64
	BBMiddle  []float64
	BBLower   []float64
	KCUpper   []float64
	KCMiddle  []float64
	KCLower   []float64
	ADX       []float64
	VWAP      []float64
	Pivot     []float64
	R1        []float64
	S1        []float64
}

// Len returns the number of bars the series covers
func (s *Series) Len() int {
	return len(s.ATR)
}

// Defined reports whether v is a real value rather than warm-up
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllDefined reports whether every value is defined
func AllDefined(vs ...float64) bool {
	for _, v := range vs {
		if !Defined(v) {
			return false
		}
	}
	return true
}

// SafeDiv divides a by b with |b| floored at Epsilon
func SafeDiv(a, b float64) float64 {
	if math.Abs(b) < Epsilon {
		if b < 0 {
			return a / -Epsilon
		}
		return a / Epsilon
	}
	return a / b
}

// Compute calculates every indicator for the bar sequence
func Compute(bars []models.Bar, p Params) *Series {
	highs, lows, closes, volumes := columns(bars)

	s := &Series{
		ATR:       atr(highs, lows, closes, p.ATRPeriod),
		EMAFast:   ema(closes, p.EMAFast),
		EMAMid:    ema(closes, p.EMAMid),
		EMASlow:   ema(closes, p.EMASlow),
		VolumeSMA: sma(volumes, p.VolumePeriod),
		RSI:       rsi(closes, p.RSIPeriod),
		ADX:       adx(highs, lows, closes, p.ADXPeriod),
		VWAP:      SessionVWAP(bars),
	}

	s.BBUpper, s.BBMiddle, s.BBLower = bollinger(closes, p.BBPeriod, p.BBStdDev)
	s.KCUpper, s.KCMiddle, s.KCLower = keltner(highs, lows, closes, p.KCPeriod, p.KCMult)
	s.Pivot, s.R1, s.S1 = FloorPivots(bars)
	return s
}

func columns(bars []models.Bar) (highs, lows, closes, volumes []float64) {
	n := len(bars)
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	volumes = make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = b.Volume
	}
	return
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// mask copies talib output and marks indices before lookback as undefined
func mask(values []float64, lookback int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i < lookback {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

// atr uses Wilder smoothing; first value at index period
func atr(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if period < 1 || n <= period {
		return undefined(n)
	}
	return mask(talib.Atr(highs, lows, closes, period), period)
}

func ema(values []float64, period int) []float64 {
	n := len(values)
	if period < 1 || n < period {
		return undefined(n)
	}
	return mask(talib.Ema(values, period), period-1)
}

func sma(values []float64, period int) []float64 {
	n := len(values)
	if period < 1 || n < period {
		return undefined(n)
	}
	return mask(talib.Sma(values, period), period-1)
}

func rsi(values []float64, period int) []float64 {
	n := len(values)
	if period < 2 || n <= period {
		return undefined(n)
	}
	return mask(talib.Rsi(values, period), period)
}

// adx is the trend-strength index; first value at index 2*period-1
func adx(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	lookback := 2*period - 1
	if period < 2 || n <= lookback {
		return undefined(n)
	}
	return mask(talib.Adx(highs, lows, closes, period), lookback)
}

func bollinger(closes []float64, period int, dev float64) ([]float64, []float64, []float64) {
	n := len(closes)
	if period < 2 || n < period {
		return undefined(n), undefined(n), undefined(n)
	}
	upper, middle, lower := talib.BBands(closes, period, dev, dev, talib.SMA)
	return mask(upper, period-1), mask(middle, period-1), mask(lower, period-1)
}

// keltner is EMA(period) +/- mult*ATR(period)
func keltner(highs, lows, closes []float64, period int, mult float64) ([]float64, []float64, []float64) {
	n := len(closes)
	middle := ema(closes, period)
	width := atr(highs, lows, closes, period)
	upper := undefined(n)
	lower := undefined(n)
	for i := 0; i < n; i++ {
		if !AllDefined(middle[i], width[i]) {
			middle[i] = math.NaN()
			continue
		}
		upper[i] = middle[i] + mult*width[i]
		lower[i] = middle[i] - mult*width[i]
	}
	return upper, middle, lower
}
