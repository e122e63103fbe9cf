package state

import (
	"stakeledger/core/types"
	"stakeledger/native/common"
)

// SenateMembers lists the governance members in insertion order.
func (m *Manager) SenateMembers() ([]types.HotKey, error) {
	var list []types.HotKey
	if err := m.KVGetList(senateMembersKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// IsSenateMember reports whether the hotkey holds a governance seat.
func (m *Manager) IsSenateMember(h types.HotKey) (bool, error) {
	members, err := m.SenateMembers()
	if err != nil {
		return false, err
	}
	return common.NewOrderedSet(members...).Has(h), nil
}

// AddSenateMember appends the hotkey to the member set.
func (m *Manager) AddSenateMember(h types.HotKey) error {
	members, err := m.SenateMembers()
	if err != nil {
		return err
	}
	return m.putList(senateMembersKey, common.Union(members, []types.HotKey{h}))
}

// RemoveSenateMember drops the hotkey from the member set.
func (m *Manager) RemoveSenateMember(h types.HotKey) error {
	members, err := m.SenateMembers()
	if err != nil {
		return err
	}
	set := common.NewOrderedSet(members...)
	set.Remove(h)
	return m.putList(senateMembersKey, set.Slice())
}
