package config

import (
	"stakeledger/native/common"
	"stakeledger/native/keyswap"
	"stakeledger/native/staking"
)

// Staking captures the stake rate limits and the coldkey swap cost.
type Staking struct {
	TargetStakesPerInterval uint64
	StakeIntervalBlocks     uint64
	KeySwapCost             uint64
}

// DefaultStaking mirrors the engine defaults.
func DefaultStaking() Staking {
	return Staking{
		TargetStakesPerInterval: staking.DefaultTargetStakesPerInterval,
		StakeIntervalBlocks:     staking.DefaultStakeIntervalBlocks,
		KeySwapCost:             keyswap.DefaultKeySwapCost,
	}
}

// StakingPolicy converts the section into the staking engine policy.
func (s Staking) StakingPolicy() staking.Policy {
	return staking.Policy{
		TargetStakesPerInterval: s.TargetStakesPerInterval,
		StakeIntervalBlocks:     s.StakeIntervalBlocks,
	}
}

// KeySwapPolicy converts the section into the key swap engine policy.
func (s Staking) KeySwapPolicy() keyswap.Policy {
	return keyswap.Policy{KeySwapCost: s.KeySwapCost}
}

type Pauses struct {
	Staking bool
	KeySwap bool
}

// IsPaused implements common.PauseView.
func (p Pauses) IsPaused(module string) bool {
	switch module {
	case common.ModuleStaking:
		return p.Staking
	case common.ModuleKeySwap:
		return p.KeySwap
	default:
		return false
	}
}
