package common

import "stakeledger/core/types"

// IntervalQuota bounds how many stake operations a (hotkey, coldkey) pair may
// perform inside one block window.
type IntervalQuota struct {
	MaxPerInterval uint64
	IntervalBlocks uint64
}

// Expired reports whether the window that started at the counter's last block
// has elapsed by the given block.
func (q IntervalQuota) Expired(prev types.IntervalCounter, block uint64) bool {
	return SaturatingAdd(prev.LastBlock, q.IntervalBlocks) <= block
}

// Current returns the number of operations counted in the active window.
func (q IntervalQuota) Current(prev types.IntervalCounter, block uint64) uint64 {
	if q.Expired(prev, block) {
		return 0
	}
	return prev.Count
}

// Allows reports whether one more operation fits the active window.
func (q IntervalQuota) Allows(prev types.IntervalCounter, block uint64) bool {
	return q.Current(prev, block) < q.MaxPerInterval
}

// Record returns the counter after one more operation at block.
func (q IntervalQuota) Record(prev types.IntervalCounter, block uint64) types.IntervalCounter {
	return types.IntervalCounter{
		Count:     SaturatingAdd(q.Current(prev, block), 1),
		LastBlock: block,
	}
}
