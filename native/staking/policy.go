package staking

import "stakeledger/native/common"

const (
	// DefaultTargetStakesPerInterval bounds stake operations per pair per window.
	DefaultTargetStakesPerInterval = 1
	// DefaultStakeIntervalBlocks is the rate-limit window length in blocks.
	DefaultStakeIntervalBlocks = 360
)

// Policy captures the rate limiting parameters applied to stake operations.
type Policy struct {
	TargetStakesPerInterval uint64
	StakeIntervalBlocks     uint64
}

// DefaultPolicy returns the network defaults.
func DefaultPolicy() Policy {
	return Policy{
		TargetStakesPerInterval: DefaultTargetStakesPerInterval,
		StakeIntervalBlocks:     DefaultStakeIntervalBlocks,
	}
}

func (p Policy) quota() common.IntervalQuota {
	return common.IntervalQuota{
		MaxPerInterval: p.TargetStakesPerInterval,
		IntervalBlocks: p.StakeIntervalBlocks,
	}
}
