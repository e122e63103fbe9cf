package common

import (
	"math"

	"github.com/iotaledger/hive.go/core/safemath"
)

// SaturatingAdd returns a+b clamped to math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	sum, err := safemath.SafeAdd(a, b)
	if err != nil {
		return math.MaxUint64
	}
	return sum
}

// SaturatingSub returns a-b clamped to zero.
func SaturatingSub(a, b uint64) uint64 {
	diff, err := safemath.SafeSub(a, b)
	if err != nil {
		return 0
	}
	return diff
}
