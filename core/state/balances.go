package state

import (
	"fmt"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/types"
	"stakeledger/native/common"
)

// Balance returns the spendable balance of the coldkey.
func (m *Manager) Balance(c types.ColdKey) (uint64, error) {
	return m.getUint64(balanceKey(c))
}

// Credit adds amount to the coldkey's spendable balance, clamping at the
// maximum.
func (m *Manager) Credit(c types.ColdKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	current, err := m.Balance(c)
	if err != nil {
		return err
	}
	return m.putUint64(balanceKey(c), common.SaturatingAdd(current, amount))
}

// Debit removes amount from the coldkey's spendable balance.
func (m *Manager) Debit(c types.ColdKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	current, err := m.Balance(c)
	if err != nil {
		return err
	}
	if current < amount {
		return fmt.Errorf("debit %d from %s (balance %d): %w", amount, c, current, stakeerrors.ErrInsufficientBalance)
	}
	return m.putUint64(balanceKey(c), current-amount)
}
