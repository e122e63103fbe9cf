package config

import "fmt"

var (
	MaxStakeIntervalBlocks = uint64(7 * 7200)
)

func ValidateConfig(c Config) error {
	if c.Staking.TargetStakesPerInterval == 0 {
		return fmt.Errorf("staking: target_stakes_per_interval must be > 0")
	}
	if c.Staking.StakeIntervalBlocks == 0 {
		return fmt.Errorf("staking: stake_interval_blocks must be > 0")
	}
	if c.Staking.StakeIntervalBlocks > MaxStakeIntervalBlocks {
		return fmt.Errorf("staking: stake_interval_blocks exceeds %d", MaxStakeIntervalBlocks)
	}
	return nil
}
