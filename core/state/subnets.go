package state

import (
	"sort"

	"stakeledger/core/types"
)

// Subnets returns every registered subnet id in ascending order.
func (m *Manager) Subnets() ([]types.SubnetID, error) {
	var list []types.SubnetID
	if err := m.KVGetList(subnetListKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SubnetExists reports whether the subnet is registered.
func (m *Manager) SubnetExists(netuid types.SubnetID) (bool, error) {
	return m.KVGet(subnetMechanismKey(netuid), nil)
}

// AddSubnet registers a subnet with its mechanism and owner. Re-registering
// updates the mechanism and owner but keeps the reserves.
func (m *Manager) AddSubnet(netuid types.SubnetID, mechanism types.Mechanism, owner types.ColdKey) error {
	list, err := m.Subnets()
	if err != nil {
		return err
	}
	found := false
	for _, existing := range list {
		if existing == netuid {
			found = true
			break
		}
	}
	if !found {
		list = append(list, netuid)
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		if err := m.KVPut(subnetListKey, list); err != nil {
			return err
		}
	}
	if err := m.KVPut(subnetMechanismKey(netuid), mechanism); err != nil {
		return err
	}
	return m.SetSubnetOwner(netuid, owner)
}

// SubnetMechanism returns the pricing mechanism; unregistered subnets read as
// fixed.
func (m *Manager) SubnetMechanism(netuid types.SubnetID) (types.Mechanism, error) {
	var mechanism types.Mechanism
	ok, err := m.KVGet(subnetMechanismKey(netuid), &mechanism)
	if err != nil {
		return 0, err
	}
	if !ok {
		return types.MechanismFixed, nil
	}
	return mechanism, nil
}

func (m *Manager) SubnetOwner(netuid types.SubnetID) (types.ColdKey, bool, error) {
	var owner types.ColdKey
	ok, err := m.KVGet(subnetOwnerKey(netuid), &owner)
	if err != nil || !ok {
		return types.ColdKey{}, false, err
	}
	return owner, true, nil
}

func (m *Manager) SetSubnetOwner(netuid types.SubnetID, owner types.ColdKey) error {
	return m.KVPut(subnetOwnerKey(netuid), owner)
}

// SubnetAlpha is the subnet's alpha reserve.
func (m *Manager) SubnetAlpha(netuid types.SubnetID) (uint64, error) {
	return m.getUint64(subnetAlphaKey(netuid))
}

func (m *Manager) SetSubnetAlpha(netuid types.SubnetID, amount uint64) error {
	return m.putUint64(subnetAlphaKey(netuid), amount)
}

// SubnetTAO is the subnet's base-currency reserve.
func (m *Manager) SubnetTAO(netuid types.SubnetID) (uint64, error) {
	return m.getUint64(subnetTAOKey(netuid))
}

func (m *Manager) SetSubnetTAO(netuid types.SubnetID, amount uint64) error {
	return m.putUint64(subnetTAOKey(netuid), amount)
}
