package keyswap

import (
	"fmt"
	"log/slog"

	"stakeledger/core/events"
	"stakeledger/core/meter"
	"stakeledger/core/types"
	"stakeledger/native/common"
)

// MigrateIdentity relocates every ledger record keyed by old onto new. Where
// new already holds state the two are merged additively; old is left empty.
// Network totals are not touched. Authorization is the caller's concern.
//
// Running it against an empty source, twice in a row, or with old equal to
// new, changes nothing beyond the metered reads.
func (e *Engine) MigrateIdentity(oldKey, newKey types.ColdKey, w *meter.Weight) error {
	if e.state == nil {
		return fmt.Errorf("keyswap engine: state not configured")
	}
	if w == nil {
		w = &meter.Weight{}
	}
	if oldKey == newKey {
		w.AddReads(1)
		return nil
	}
	start := *w

	owned, err := e.migrateOwnedHotkeys(oldKey, newKey, w)
	if err != nil {
		return fmt.Errorf("migrate owned hotkeys: %w", err)
	}
	subnets, err := e.subnets(w)
	if err != nil {
		return err
	}
	staking, err := e.migrateStake(oldKey, newKey, subnets, w)
	if err != nil {
		return fmt.Errorf("migrate stake: %w", err)
	}
	if err := e.migrateColdkeyTotal(oldKey, newKey, w); err != nil {
		return fmt.Errorf("migrate coldkey total: %w", err)
	}
	if err := e.migrateIntervalCounters(oldKey, newKey, owned, w); err != nil {
		return fmt.Errorf("migrate interval counters: %w", err)
	}
	if err := e.migrateSubnetOwnership(oldKey, newKey, subnets, w); err != nil {
		return fmt.Errorf("migrate subnet ownership: %w", err)
	}
	if err := e.sweepBalance(oldKey, newKey, w); err != nil {
		return fmt.Errorf("sweep balance: %w", err)
	}

	e.emitter.Emit(events.ColdkeySwapped{Old: oldKey, New: newKey})
	touched := len(common.Union(owned, staking))
	e.metrics.ObserveColdkeySwap(w.Reads-start.Reads, w.Writes-start.Writes, touched)
	e.logger.Info("coldkey migrated",
		slog.String("old", oldKey.String()),
		slog.String("new", newKey.String()),
		slog.Int("hotkeys", touched),
		slog.Uint64("reads", w.Reads-start.Reads),
		slog.Uint64("writes", w.Writes-start.Writes))
	return nil
}

func (e *Engine) migrateOwnedHotkeys(oldKey, newKey types.ColdKey, w *meter.Weight) ([]types.HotKey, error) {
	owned, err := e.state.OwnedHotkeys(oldKey)
	if err != nil {
		return nil, err
	}
	w.AddReads(1)
	for _, h := range owned {
		if err := e.state.SetOwner(h, newKey); err != nil {
			return nil, err
		}
		w.AddWrites(1)
	}
	existing, err := e.state.OwnedHotkeys(newKey)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetOwnedHotkeys(newKey, common.Union(existing, owned)); err != nil {
		return nil, err
	}
	if err := e.state.SetOwnedHotkeys(oldKey, nil); err != nil {
		return nil, err
	}
	w.Accrue(1, 2)
	return owned, nil
}

// subnets lists every subnet an Alpha position may live on. The root subnet
// is always included whether or not it was registered.
func (e *Engine) subnets(w *meter.Weight) ([]types.SubnetID, error) {
	registered, err := e.state.Subnets()
	if err != nil {
		return nil, err
	}
	w.AddReads(1)
	return common.Union([]types.SubnetID{types.RootSubnet}, registered), nil
}

func (e *Engine) migrateStake(oldKey, newKey types.ColdKey, subnets []types.SubnetID, w *meter.Weight) ([]types.HotKey, error) {
	staking, err := e.state.StakingHotkeys(oldKey)
	if err != nil {
		return nil, err
	}
	w.AddReads(1)
	for _, h := range staking {
		if err := e.moveAmount(w,
			func() (uint64, error) { return e.state.Stake(h, oldKey) },
			func() (uint64, error) { return e.state.Stake(h, newKey) },
			func(v uint64) error { return e.state.SetStake(h, oldKey, v) },
			func(v uint64) error { return e.state.SetStake(h, newKey, v) },
		); err != nil {
			return nil, err
		}
		for _, netuid := range subnets {
			if err := e.moveAmount(w,
				func() (uint64, error) { return e.state.Alpha(h, oldKey, netuid) },
				func() (uint64, error) { return e.state.Alpha(h, newKey, netuid) },
				func(v uint64) error { return e.state.SetAlpha(h, oldKey, netuid, v) },
				func(v uint64) error { return e.state.SetAlpha(h, newKey, netuid, v) },
			); err != nil {
				return nil, err
			}
		}
	}
	existing, err := e.state.StakingHotkeys(newKey)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetStakingHotkeys(newKey, common.Union(existing, staking)); err != nil {
		return nil, err
	}
	if err := e.state.SetStakingHotkeys(oldKey, nil); err != nil {
		return nil, err
	}
	w.Accrue(1, 2)
	return staking, nil
}

func (e *Engine) migrateColdkeyTotal(oldKey, newKey types.ColdKey, w *meter.Weight) error {
	return e.moveAmount(w,
		func() (uint64, error) { return e.state.TotalColdkeyStake(oldKey) },
		func() (uint64, error) { return e.state.TotalColdkeyStake(newKey) },
		func(v uint64) error { return e.state.SetTotalColdkeyStake(oldKey, v) },
		func(v uint64) error { return e.state.SetTotalColdkeyStake(newKey, v) },
	)
}

// moveAmount adds the source value onto the destination and zeroes the
// source. Nothing is written when the source is empty.
func (e *Engine) moveAmount(
	w *meter.Weight,
	getSrc, getDst func() (uint64, error),
	setSrc, setDst func(uint64) error,
) error {
	amount, err := getSrc()
	if err != nil {
		return err
	}
	w.AddReads(1)
	if amount == 0 {
		return nil
	}
	current, err := getDst()
	if err != nil {
		return err
	}
	if err := setDst(common.SaturatingAdd(current, amount)); err != nil {
		return err
	}
	if err := setSrc(0); err != nil {
		return err
	}
	w.Accrue(1, 2)
	return nil
}

// migrateIntervalCounters moves each owned hotkey's rate-limit window onto
// the new coldkey. A window already present under new is merged: counts add
// up and the later block wins.
func (e *Engine) migrateIntervalCounters(oldKey, newKey types.ColdKey, owned []types.HotKey, w *meter.Weight) error {
	for _, h := range owned {
		counter, ok, err := e.state.StakesThisInterval(h, oldKey)
		if err != nil {
			return err
		}
		w.AddReads(1)
		if !ok {
			continue
		}
		existing, found, err := e.state.StakesThisInterval(h, newKey)
		if err != nil {
			return err
		}
		w.AddReads(1)
		if found {
			counter = types.IntervalCounter{
				Count:     common.SaturatingAdd(counter.Count, existing.Count),
				LastBlock: max(counter.LastBlock, existing.LastBlock),
			}
		}
		if err := e.state.SetStakesThisInterval(h, newKey, counter); err != nil {
			return err
		}
		if err := e.state.DeleteStakesThisInterval(h, oldKey); err != nil {
			return err
		}
		w.AddWrites(2)
	}
	return nil
}

func (e *Engine) migrateSubnetOwnership(oldKey, newKey types.ColdKey, subnets []types.SubnetID, w *meter.Weight) error {
	for _, netuid := range subnets {
		owner, ok, err := e.state.SubnetOwner(netuid)
		if err != nil {
			return err
		}
		w.AddReads(1)
		if !ok || owner != oldKey {
			continue
		}
		if err := e.state.SetSubnetOwner(netuid, newKey); err != nil {
			return err
		}
		w.AddWrites(1)
	}
	return nil
}

func (e *Engine) sweepBalance(oldKey, newKey types.ColdKey, w *meter.Weight) error {
	balance, err := e.state.Balance(oldKey)
	if err != nil {
		return err
	}
	w.AddReads(1)
	if balance == 0 {
		return nil
	}
	if err := e.state.Debit(oldKey, balance); err != nil {
		return err
	}
	if err := e.state.Credit(newKey, balance); err != nil {
		return err
	}
	w.AddWrites(2)
	return nil
}
