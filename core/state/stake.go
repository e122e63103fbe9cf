package state

import "stakeledger/core/types"

// Stake returns the legacy aggregate stake placed by coldkey c on hotkey h.
func (m *Manager) Stake(h types.HotKey, c types.ColdKey) (uint64, error) {
	return m.getUint64(stakeKey(h, c))
}

// HasStake reports whether a (hotkey, coldkey) stake entry is present.
func (m *Manager) HasStake(h types.HotKey, c types.ColdKey) (bool, error) {
	return m.KVGet(stakeKey(h, c), nil)
}

// SetStake stores the aggregate stake; zero removes the entry.
func (m *Manager) SetStake(h types.HotKey, c types.ColdKey, amount uint64) error {
	return m.putUint64(stakeKey(h, c), amount)
}

// Alpha returns the subnet-denominated stake units held by c on h.
func (m *Manager) Alpha(h types.HotKey, c types.ColdKey, netuid types.SubnetID) (uint64, error) {
	return m.getUint64(alphaKey(h, c, netuid))
}

// SetAlpha stores the subnet units; zero removes the entry.
func (m *Manager) SetAlpha(h types.HotKey, c types.ColdKey, netuid types.SubnetID, amount uint64) error {
	return m.putUint64(alphaKey(h, c, netuid), amount)
}

func (m *Manager) TotalHotkeyAlpha(h types.HotKey, netuid types.SubnetID) (uint64, error) {
	return m.getUint64(totalHotkeyAlphaKey(h, netuid))
}

func (m *Manager) SetTotalHotkeyAlpha(h types.HotKey, netuid types.SubnetID, amount uint64) error {
	return m.putUint64(totalHotkeyAlphaKey(h, netuid), amount)
}

func (m *Manager) TotalHotkeyStake(h types.HotKey) (uint64, error) {
	return m.getUint64(totalHotkeyStakeKey(h))
}

func (m *Manager) SetTotalHotkeyStake(h types.HotKey, amount uint64) error {
	return m.putUint64(totalHotkeyStakeKey(h), amount)
}

func (m *Manager) TotalColdkeyStake(c types.ColdKey) (uint64, error) {
	return m.getUint64(totalColdkeyStakeKey(c))
}

func (m *Manager) SetTotalColdkeyStake(c types.ColdKey, amount uint64) error {
	return m.putUint64(totalColdkeyStakeKey(c), amount)
}

// TotalStake is the network-wide staked amount.
func (m *Manager) TotalStake() (uint64, error) {
	return m.getUint64(totalStakeKey)
}

func (m *Manager) SetTotalStake(amount uint64) error {
	return m.putUint64(totalStakeKey, amount)
}

// TotalIssuance is the network-wide issued amount.
func (m *Manager) TotalIssuance() (uint64, error) {
	return m.getUint64(totalIssuanceKey)
}

func (m *Manager) SetTotalIssuance(amount uint64) error {
	return m.putUint64(totalIssuanceKey, amount)
}

// StakesThisInterval returns the rate-limit window state of a pair.
func (m *Manager) StakesThisInterval(h types.HotKey, c types.ColdKey) (types.IntervalCounter, bool, error) {
	var counter types.IntervalCounter
	ok, err := m.KVGet(stakesThisIntervalKey(h, c), &counter)
	if err != nil || !ok {
		return types.IntervalCounter{}, false, err
	}
	return counter, true, nil
}

func (m *Manager) SetStakesThisInterval(h types.HotKey, c types.ColdKey, counter types.IntervalCounter) error {
	return m.KVPut(stakesThisIntervalKey(h, c), counter)
}

func (m *Manager) DeleteStakesThisInterval(h types.HotKey, c types.ColdKey) error {
	return m.KVDelete(stakesThisIntervalKey(h, c))
}

// LastTxBlock returns the block of the coldkey's last rate-limited operation.
func (m *Manager) LastTxBlock(c types.ColdKey) (uint64, error) {
	return m.getUint64(lastTxBlockKey(c))
}

func (m *Manager) SetLastTxBlock(c types.ColdKey, block uint64) error {
	return m.putUint64(lastTxBlockKey(c), block)
}
