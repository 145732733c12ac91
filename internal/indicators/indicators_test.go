package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/Alias1177/StructureScanner/models"
)

var baseTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func generateTestBars(n int, generator func(int) models.Bar) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		if bars[i].Timestamp.IsZero() {
			bars[i].Timestamp = baseTime.Add(time.Duration(i) * 5 * time.Minute)
		}
	}
	return bars
}

func trueRange(bars []models.Bar, i int) float64 {
	b := bars[i]
	prev := bars[i-1].Close
	return math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
}

func TestComputeWarmup(t *testing.T) {
	bars := generateTestBars(30, func(i int) models.Bar {
		c := 100 + float64(i%5)
		return models.Bar{Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	})

	s := Compute(bars, DefaultParams())

	tests := []struct {
		name      string
		series    []float64
		firstReal int
	}{
		{"ATR", s.ATR, 14},
		{"EMAFast", s.EMAFast, 8},
		{"EMAMid", s.EMAMid, 20},
		{"VolumeSMA", s.VolumeSMA, 19},
		{"ADX", s.ADX, 27},
		{"RSI", s.RSI, 14},
		{"BBMiddle", s.BBMiddle, 19},
		{"KCUpper", s.KCUpper, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.series) != len(bars) {
				t.Fatalf("len = %d, want %d", len(tt.series), len(bars))
			}
			for i := 0; i < tt.firstReal; i++ {
				if Defined(tt.series[i]) {
					t.Errorf("index %d should be warm-up, got %f", i, tt.series[i])
				}
			}
			if !Defined(tt.series[tt.firstReal]) {
				t.Errorf("index %d should be defined", tt.firstReal)
			}
		})
	}

	for i, v := range s.EMASlow {
		if Defined(v) {
			t.Fatalf("EMASlow needs 50 bars, got value at %d", i)
		}
	}
}

func TestComputeShortWindow(t *testing.T) {
	bars := generateTestBars(5, func(i int) models.Bar {
		return models.Bar{Open: 10, High: 11, Low: 9, Close: 10, Volume: 1}
	})

	s := Compute(bars, DefaultParams())
	for _, series := range [][]float64{s.ATR, s.RSI, s.ADX, s.BBUpper, s.KCLower, s.EMAFast} {
		if len(series) != 5 {
			t.Fatalf("series length = %d, want 5", len(series))
		}
		for i, v := range series {
			if Defined(v) {
				t.Errorf("index %d should be undefined, got %f", i, v)
			}
		}
	}
}

func TestATRConstantRange(t *testing.T) {
	bars := generateTestBars(40, func(i int) models.Bar {
		return models.Bar{Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	})

	s := Compute(bars, DefaultParams())
	for i := 14; i < len(bars); i++ {
		if math.Abs(s.ATR[i]-2) > 1e-9 {
			t.Fatalf("ATR[%d] = %f, want 2", i, s.ATR[i])
		}
	}
}

func TestATRWilderSmoothing(t *testing.T) {
	bars := generateTestBars(60, func(i int) models.Bar {
		c := 100 + math.Sin(float64(i)/3)*4
		spread := 0.5 + float64(i%7)*0.3
		return models.Bar{Open: c, High: c + spread, Low: c - spread, Close: c + spread/2, Volume: 10}
	})

	p := DefaultParams()
	s := Compute(bars, p)
	period := float64(p.ATRPeriod)

	for i := p.ATRPeriod + 1; i < len(bars); i++ {
		want := (s.ATR[i-1]*(period-1) + trueRange(bars, i)) / period
		if math.Abs(s.ATR[i]-want) > 1e-9 {
			t.Fatalf("ATR[%d] = %.10f, want Wilder value %.10f", i, s.ATR[i], want)
		}
	}
}

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{1, 2, 0.5},
		{1, 0, 1 / Epsilon},
		{1, -1e-20, -1 / Epsilon},
		{-3, 1e-12, -3 / Epsilon},
	}
	for _, tt := range tests {
		if got := SafeDiv(tt.a, tt.b); math.Abs(got-tt.want) > math.Abs(tt.want)*1e-12 {
			t.Errorf("SafeDiv(%g, %g) = %g, want %g", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSessionVWAP(t *testing.T) {
	day2 := baseTime.Add(24 * time.Hour)
	bars := []models.Bar{
		{Timestamp: baseTime, High: 11, Low: 9, Close: 10, Volume: 1},
		{Timestamp: baseTime.Add(time.Hour), High: 21, Low: 19, Close: 20, Volume: 3},
		{Timestamp: day2, High: 31, Low: 29, Close: 30, Volume: 5},
		{Timestamp: day2.Add(time.Hour), High: 41, Low: 39, Close: 40, Volume: 0},
	}

	vwap := SessionVWAP(bars)
	want := []float64{10, 17.5, 30, 30}
	for i := range want {
		if math.Abs(vwap[i]-want[i]) > 1e-9 {
			t.Errorf("VWAP[%d] = %f, want %f", i, vwap[i], want[i])
		}
	}
}

func TestSessionVWAPWithoutVolume(t *testing.T) {
	bars := []models.Bar{
		{Timestamp: baseTime, High: 11, Low: 9, Close: 10},
		{Timestamp: baseTime.Add(time.Hour), High: 21, Low: 19, Close: 20},
	}

	vwap := SessionVWAP(bars)
	if vwap[0] != 10 || vwap[1] != 15 {
		t.Fatalf("expected typical-price mean fallback, got %v", vwap)
	}
}

func TestFloorPivots(t *testing.T) {
	day2 := baseTime.Add(24 * time.Hour)
	bars := []models.Bar{
		{Timestamp: baseTime, High: 11, Low: 8, Close: 9},
		{Timestamp: baseTime.Add(time.Hour), High: 12, Low: 9, Close: 10},
		{Timestamp: day2, High: 13, Low: 10, Close: 12},
		{Timestamp: day2.Add(time.Hour), High: 14, Low: 11, Close: 13},
	}

	pivot, r1, s1 := FloorPivots(bars)
	for i := 0; i < 2; i++ {
		if Defined(pivot[i]) || Defined(r1[i]) || Defined(s1[i]) {
			t.Fatalf("first-day pivots must be undefined at %d", i)
		}
	}
	for i := 2; i < 4; i++ {
		if pivot[i] != 10 || r1[i] != 12 || s1[i] != 8 {
			t.Errorf("bar %d pivots = (%f, %f, %f), want (10, 12, 8)", i, pivot[i], r1[i], s1[i])
		}
	}
}

func TestComputePrefixStable(t *testing.T) {
	bars := generateTestBars(90, func(i int) models.Bar {
		x := float64(i)
		c := 50 + 3*math.Sin(x/6) + math.Cos(x*1.7)
		return models.Bar{Open: c - 0.2, High: c + 0.6 + 0.3*math.Abs(math.Sin(x)), Low: c - 0.7, Close: c, Volume: 800 + 200*math.Sin(x/4)}
	})
	full := Compute(bars, DefaultParams())

	columns := func(s *Series) map[string][]float64 {
		return map[string][]float64{
			"ATR": s.ATR, "EMAFast": s.EMAFast, "EMAMid": s.EMAMid, "EMASlow": s.EMASlow,
			"VolumeSMA": s.VolumeSMA, "RSI": s.RSI, "ADX": s.ADX,
			"BBUpper": s.BBUpper, "BBLower": s.BBLower, "KCUpper": s.KCUpper, "KCLower": s.KCLower,
			"VWAP": s.VWAP, "Pivot": s.Pivot,
		}
	}
	want := columns(full)

	for n := 1; n < len(bars); n++ {
		got := columns(Compute(bars[:n], DefaultParams()))
		for name, values := range got {
			for i, v := range values {
				w := want[name][i]
				if Defined(v) != Defined(w) || (Defined(v) && v != w) {
					t.Fatalf("%s[%d] on %d bars = %v, full window has %v", name, i, n, v, w)
				}
			}
		}
	}
}

func TestADXShortestWindow(t *testing.T) {
	p := DefaultParams()
	n := 2 * p.ADXPeriod
	bars := generateTestBars(n, func(i int) models.Bar {
		c := 100 + float64(i%7)
		return models.Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	})

	s := Compute(bars, p)
	if !Defined(s.ADX[n-1]) {
		t.Fatalf("ADX should be defined at %d with %d bars", n-1, n)
	}
	if Defined(s.ADX[n-2]) {
		t.Errorf("ADX at %d should still be warm-up", n-2)
	}
	if short := Compute(bars[:n-1], p); Defined(short.ADX[n-2]) {
		t.Errorf("ADX needs %d bars", n)
	}
}
