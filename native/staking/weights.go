package staking

import "stakeledger/core/meter"

// Storage weights charged for each staking operation. They count the logical
// map accesses of the worst-case path.
var (
	WithdrawWeight       = meter.ReadsWrites(13, 9)
	AddStakeWeight       = meter.ReadsWrites(16, 12)
	RegisterHotkeyWeight = meter.ReadsWrites(2, 2)
	BecomeDelegateWeight = meter.ReadsWrites(2, 1)
)
