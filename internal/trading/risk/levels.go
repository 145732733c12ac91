package risk

import (
	"math"

	"github.com/Alias1177/StructureScanner/models"
)

// Levels is the entry, stop and target of one trade idea
type Levels struct {
	Entry  float64 `json:"entry"`
	Stop   float64 `json:"stop"`
	Target float64 `json:"target"`
}

// ATRStop places the stop mult ATRs away from entry on the losing side
func ATRStop(entry, atr, mult float64, side models.Side) float64 {
	if side == models.Long {
		return entry - atr*mult
	}
	return entry + atr*mult
}

// BufferedStop puts the stop a buffer beyond a structural level
func BufferedStop(level, buffer float64, side models.Side) float64 {
	if side == models.Long {
		return level - buffer
	}
	return level + buffer
}

// TargetFor projects the target ratio times the risk past entry
func TargetFor(entry, stop, ratio float64) float64 {
	return entry + (entry-stop)*ratio
}

// Risk is the distance to the stop, negative when the stop is on the wrong side
func Risk(l Levels, side models.Side) float64 {
	if side == models.Long {
		return l.Entry - l.Stop
	}
	return l.Stop - l.Entry
}

// Reward is the distance to the target, negative when the target is on the wrong side
func Reward(l Levels, side models.Side) float64 {
	if side == models.Long {
		return l.Target - l.Entry
	}
	return l.Entry - l.Target
}

// RewardRatio returns reward over risk, 0 when the levels are unusable
func RewardRatio(l Levels, side models.Side) float64 {
	r := Risk(l, side)
	if r <= 0 {
		return 0
	}
	return Reward(l, side) / r
}

// Valid reports finite levels with positive risk and reward
func Valid(l Levels, side models.Side) bool {
	for _, v := range []float64{l.Entry, l.Stop, l.Target} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return RewardRatio(l, side) > 0
}
