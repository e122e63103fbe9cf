// core/genesis/loader.go
package genesis

import (
	"fmt"

	"stakeledger/core/state"
	"stakeledger/core/types"
	"stakeledger/native/common"
)

// Apply writes the genesis ledger through the state manager. Stake entries are
// accumulated with the same saturating arithmetic the engines use, so repeated
// entries for one position add up.
func Apply(spec *GenesisSpec, manager *state.Manager) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return fmt.Errorf("state manager must not be nil")
	}
	if spec.subnets == nil {
		if err := spec.validate(); err != nil {
			return err
		}
	}

	if err := manager.SetTotalIssuance(spec.TotalIssuance); err != nil {
		return fmt.Errorf("total issuance: %w", err)
	}

	// 1) Subnets
	for _, sub := range spec.Subnets {
		id := types.SubnetID(sub.Netuid)
		if err := manager.AddSubnet(id, sub.mechanism, sub.owner); err != nil {
			return fmt.Errorf("subnet %d: %w", sub.Netuid, err)
		}
		if err := manager.SetSubnetAlpha(id, sub.AlphaReserve); err != nil {
			return fmt.Errorf("subnet %d: %w", sub.Netuid, err)
		}
		if err := manager.SetSubnetTAO(id, sub.TaoReserve); err != nil {
			return fmt.Errorf("subnet %d: %w", sub.Netuid, err)
		}
	}

	// 2) Balances (sorted)
	for _, account := range spec.sortedBalances() {
		if err := manager.Credit(account, spec.balances[account]); err != nil {
			return fmt.Errorf("balance %s: %w", account, err)
		}
	}

	// 3) Hotkeys
	for _, hk := range spec.Hotkeys {
		if err := manager.SetOwner(hk.hotkey, hk.owner); err != nil {
			return fmt.Errorf("hotkey %s: %w", hk.hotkey, err)
		}
		owned, err := manager.OwnedHotkeys(hk.owner)
		if err != nil {
			return err
		}
		if err := manager.SetOwnedHotkeys(hk.owner, common.Union(owned, []types.HotKey{hk.hotkey})); err != nil {
			return fmt.Errorf("hotkey %s: %w", hk.hotkey, err)
		}
		if hk.Delegate {
			if err := manager.SetDelegate(hk.hotkey, hk.Take); err != nil {
				return fmt.Errorf("hotkey %s: %w", hk.hotkey, err)
			}
		}
	}

	// 4) Stakes
	for i, st := range spec.Stakes {
		if err := applyStake(manager, st); err != nil {
			return fmt.Errorf("stake[%d]: %w", i, err)
		}
	}

	// 5) Senate
	for _, member := range spec.Senate {
		hotkey, err := types.ParseHotKey(member)
		if err != nil {
			return err
		}
		if err := manager.AddSenateMember(hotkey); err != nil {
			return fmt.Errorf("senate %s: %w", hotkey, err)
		}
	}
	return nil
}

func applyStake(manager *state.Manager, st StakeSpec) error {
	netuid := types.SubnetID(st.Netuid)
	alpha := st.AlphaAmount()
	adds := []struct {
		get func() (uint64, error)
		set func(uint64) error
		by  uint64
	}{
		{func() (uint64, error) { return manager.Stake(st.hotkey, st.coldkey) },
			func(v uint64) error { return manager.SetStake(st.hotkey, st.coldkey, v) }, st.Amount},
		{func() (uint64, error) { return manager.Alpha(st.hotkey, st.coldkey, netuid) },
			func(v uint64) error { return manager.SetAlpha(st.hotkey, st.coldkey, netuid, v) }, alpha},
		{func() (uint64, error) { return manager.TotalHotkeyAlpha(st.hotkey, netuid) },
			func(v uint64) error { return manager.SetTotalHotkeyAlpha(st.hotkey, netuid, v) }, alpha},
		{func() (uint64, error) { return manager.TotalHotkeyStake(st.hotkey) },
			func(v uint64) error { return manager.SetTotalHotkeyStake(st.hotkey, v) }, st.Amount},
		{func() (uint64, error) { return manager.TotalColdkeyStake(st.coldkey) },
			func(v uint64) error { return manager.SetTotalColdkeyStake(st.coldkey, v) }, st.Amount},
		{manager.TotalStake, manager.SetTotalStake, st.Amount},
	}
	for _, add := range adds {
		current, err := add.get()
		if err != nil {
			return err
		}
		if err := add.set(common.SaturatingAdd(current, add.by)); err != nil {
			return err
		}
	}
	staking, err := manager.StakingHotkeys(st.coldkey)
	if err != nil {
		return err
	}
	return manager.SetStakingHotkeys(st.coldkey, common.Union(staking, []types.HotKey{st.hotkey}))
}
