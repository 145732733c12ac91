package patterns

import (
	"math"

	"github.com/Alias1177/StructureScanner/models"
)

// Pattern is a single-bar or multi-bar candle formation
type Pattern string

const (
	BullishEngulfing      Pattern = "BULLISH_ENGULFING"
	BearishEngulfing      Pattern = "BEARISH_ENGULFING"
	Hammer                Pattern = "HAMMER"
	ShootingStar          Pattern = "SHOOTING_STAR"
	ThreeWhiteSoldiers    Pattern = "THREE_WHITE_SOLDIERS"
	ThreeBlackCrows       Pattern = "THREE_BLACK_CROWS"
	Doji                  Pattern = "DOJI"
	StrongBullishMomentum Pattern = "STRONG_BULLISH_MOMENTUM"
	StrongBearishMomentum Pattern = "STRONG_BEARISH_MOMENTUM"
)

// bodyWindow is the number of bars averaged for the reference body size
const bodyWindow = 5

// IdentifyAt returns the candle patterns completed at bar i.
// Only bars up to and including i are read.
func IdentifyAt(bars []models.Bar, i int) []Pattern {
	if i < bodyWindow-1 || i >= len(bars) {
		return nil
	}

	var found []Pattern

	c3 := bars[i-2]
	c4 := bars[i-1]
	c5 := bars[i]

	var avgBody float64
	for j := i - bodyWindow + 1; j <= i; j++ {
		avgBody += bars[j].Body()
	}
	avgBody /= bodyWindow

	body4 := c4.Body()
	body5 := c5.Body()
	upperWick5 := c5.High - math.Max(c5.Open, c5.Close)
	lowerWick5 := math.Min(c5.Open, c5.Close) - c5.Low

	// engulfing: current body swallows the previous opposite body
	if c5.IsBullish() && c4.IsBearish() &&
		c5.Open <= c4.Close && c5.Close >= c4.Open && body5 > body4*1.2 {
		found = append(found, BullishEngulfing)
	}
	if c5.IsBearish() && c4.IsBullish() &&
		c5.Open >= c4.Close && c5.Close <= c4.Open && body5 > body4*1.2 {
		found = append(found, BearishEngulfing)
	}

	// pin bars
	if body5 > 0 && lowerWick5 > body5*2 && upperWick5 < body5*0.5 {
		found = append(found, Hammer)
	}
	if body5 > 0 && upperWick5 > body5*2 && lowerWick5 < body5*0.5 {
		found = append(found, ShootingStar)
	}

	if c3.IsBullish() && c4.IsBullish() && c5.IsBullish() {
		found = append(found, ThreeWhiteSoldiers)
	}
	if c3.IsBearish() && c4.IsBearish() && c5.IsBearish() {
		found = append(found, ThreeBlackCrows)
	}

	if body5 < avgBody*0.3 && (upperWick5 > body5 || lowerWick5 > body5) {
		found = append(found, Doji)
	}

	// impulse candles with small wicks on both sides
	if body5 > avgBody*1.5 && lowerWick5 < body5*0.2 && upperWick5 < body5*0.2 {
		if c5.IsBullish() {
			found = append(found, StrongBullishMomentum)
		} else if c5.IsBearish() {
			found = append(found, StrongBearishMomentum)
		}
	}

	return found
}

var confirmations = map[models.Direction][]Pattern{
	models.Bullish: {BullishEngulfing, Hammer, StrongBullishMomentum},
	models.Bearish: {BearishEngulfing, ShootingStar, StrongBearishMomentum},
}

// Confirms reports whether bar i completes a reversal or impulse
// formation in the given direction
func Confirms(bars []models.Bar, i int, dir models.Direction) bool {
	found := IdentifyAt(bars, i)
	for _, p := range found {
		for _, want := range confirmations[dir] {
			if p == want {
				return true
			}
		}
	}
	return false
}
