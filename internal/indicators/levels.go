package indicators

import (
	"math"
	"time"

	"github.com/Alias1177/StructureScanner/models"
)

func sessionKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SessionVWAP is the volume-weighted average of typical price, anchored at
// the first bar of each UTC day. A session whose volume is still zero
// reports the running typical-price mean instead.
func SessionVWAP(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	var (
		day           string
		pv, vol       float64
		tpSum         float64
		barsInSession int
	)
	for i, b := range bars {
		key := sessionKey(b.Timestamp)
		if i == 0 || key != day {
			day = key
			pv, vol, tpSum, barsInSession = 0, 0, 0, 0
		}
		tp := (b.High + b.Low + b.Close) / 3
		pv += tp * b.Volume
		vol += b.Volume
		tpSum += tp
		barsInSession++
		if vol > Epsilon {
			out[i] = pv / vol
		} else {
			out[i] = tpSum / float64(barsInSession)
		}
	}
	return out
}

// FloorPivots returns classic pivot, R1 and S1 computed from the previous
// UTC day's high, low and close. Bars of the first day in the window are
// undefined.
func FloorPivots(bars []models.Bar) (pivot, r1, s1 []float64) {
	n := len(bars)
	pivot, r1, s1 = undefined(n), undefined(n), undefined(n)

	var (
		day                    string
		curHigh, curLow, curCl float64
		havePrev               bool
		p, r, s                float64
	)
	for i, b := range bars {
		key := sessionKey(b.Timestamp)
		if i == 0 || key != day {
			if i > 0 {
				p = (curHigh + curLow + curCl) / 3
				r = 2*p - curLow
				s = 2*p - curHigh
				havePrev = true
			}
			day = key
			curHigh, curLow = b.High, b.Low
		}
		curHigh = math.Max(curHigh, b.High)
		curLow = math.Min(curLow, b.Low)
		curCl = b.Close

		if havePrev {
			pivot[i], r1[i], s1[i] = p, r, s
		}
	}
	return pivot, r1, s1
}
