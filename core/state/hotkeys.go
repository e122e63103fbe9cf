package state

import (
	"stakeledger/core/types"
	"stakeledger/native/common"
)

// Owner returns the coldkey that registered the hotkey.
func (m *Manager) Owner(h types.HotKey) (types.ColdKey, bool, error) {
	var owner types.ColdKey
	ok, err := m.KVGet(ownerKey(h), &owner)
	if err != nil || !ok {
		return types.ColdKey{}, false, err
	}
	return owner, true, nil
}

// SetOwner records the owning coldkey of a hotkey.
func (m *Manager) SetOwner(h types.HotKey, owner types.ColdKey) error {
	return m.KVPut(ownerKey(h), owner)
}

// HotkeyExists reports whether the hotkey has an owner record.
func (m *Manager) HotkeyExists(h types.HotKey) (bool, error) {
	return m.KVGet(ownerKey(h), nil)
}

// OwnedHotkeys lists the hotkeys owned by the coldkey in insertion order.
func (m *Manager) OwnedHotkeys(c types.ColdKey) ([]types.HotKey, error) {
	var list []types.HotKey
	if err := m.KVGetList(ownedHotkeysKey(c), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetOwnedHotkeys replaces the owned hotkey list. Duplicates are dropped and
// an empty list removes the entry.
func (m *Manager) SetOwnedHotkeys(c types.ColdKey, hotkeys []types.HotKey) error {
	return m.putList(ownedHotkeysKey(c), common.Union(nil, hotkeys))
}

// StakingHotkeys lists the hotkeys the coldkey has staked to.
func (m *Manager) StakingHotkeys(c types.ColdKey) ([]types.HotKey, error) {
	var list []types.HotKey
	if err := m.KVGetList(stakingHotkeysKey(c), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetStakingHotkeys replaces the staking hotkey list. Duplicates are dropped
// and an empty list removes the entry.
func (m *Manager) SetStakingHotkeys(c types.ColdKey, hotkeys []types.HotKey) error {
	return m.putList(stakingHotkeysKey(c), common.Union(nil, hotkeys))
}

type delegateRecord struct {
	Take uint16
}

// Delegate returns the take of a delegate hotkey. ok=false means the hotkey
// does not accept delegated stake.
func (m *Manager) Delegate(h types.HotKey) (uint16, bool, error) {
	var record delegateRecord
	ok, err := m.KVGet(delegateKey(h), &record)
	if err != nil || !ok {
		return 0, false, err
	}
	return record.Take, true, nil
}

// IsDelegate reports whether the hotkey accepts delegated stake.
func (m *Manager) IsDelegate(h types.HotKey) (bool, error) {
	return m.KVGet(delegateKey(h), nil)
}

// SetDelegate flags the hotkey as a delegate with the provided take.
func (m *Manager) SetDelegate(h types.HotKey, take uint16) error {
	return m.KVPut(delegateKey(h), delegateRecord{Take: take})
}
