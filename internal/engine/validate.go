package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/Alias1177/StructureScanner/models"
)

// ErrInvalidBar marks a bar the engine cannot analyze
var ErrInvalidBar = errors.New("invalid bar")

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks prices are finite and positive, high is not below low,
// volume is not negative and timestamps strictly increase.
func Validate(bars []models.Bar) error {
	for i, b := range bars {
		for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
			if !finite(p) || p <= 0 {
				return fmt.Errorf("bar %d: price %v: %w", i, p, ErrInvalidBar)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d: high %v below low %v: %w", i, b.High, b.Low, ErrInvalidBar)
		}
		if !finite(b.Volume) || b.Volume < 0 {
			return fmt.Errorf("bar %d: volume %v: %w", i, b.Volume, ErrInvalidBar)
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after %s: %w",
				i, b.Timestamp.Format("2006-01-02 15:04:05"), bars[i-1].Timestamp.Format("2006-01-02 15:04:05"), ErrInvalidBar)
		}
	}
	return nil
}
