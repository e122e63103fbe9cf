package types

import (
	"fmt"

	"github.com/google/uuid"

	"stakeledger/core/meter"
)

// TxType enumerates the ledger operations understood by the state processor.
type TxType string

const (
	TxTypeRegisterHotkey   TxType = "register-hotkey"
	TxTypeBecomeDelegate   TxType = "become-delegate"
	TxTypeAddStake         TxType = "add-stake"
	TxTypeRemoveStake      TxType = "remove-stake"
	TxTypeSwapColdkey      TxType = "swap-coldkey"
	TxTypeSwapSenateMember TxType = "swap-senate-member"
)

// Transaction is an already-authenticated ledger operation. Caller is the
// coldkey resolved by the surrounding request layer.
type Transaction struct {
	Type       TxType
	Caller     ColdKey
	Hotkey     HotKey
	NewHotkey  HotKey
	NewColdkey ColdKey
	Subnet     SubnetID
	Amount     uint64
	Take       uint16
}

// Validate performs the structural checks that do not need ledger state.
func (tx *Transaction) Validate() error {
	if tx == nil {
		return fmt.Errorf("nil transaction")
	}
	switch tx.Type {
	case TxTypeRegisterHotkey, TxTypeBecomeDelegate, TxTypeAddStake, TxTypeRemoveStake:
		if tx.Hotkey.IsZero() {
			return fmt.Errorf("%s: hotkey required", tx.Type)
		}
	case TxTypeSwapColdkey:
		if tx.NewColdkey.IsZero() {
			return fmt.Errorf("%s: new coldkey required", tx.Type)
		}
	case TxTypeSwapSenateMember:
		if tx.Hotkey.IsZero() || tx.NewHotkey.IsZero() {
			return fmt.Errorf("%s: old and new hotkey required", tx.Type)
		}
	default:
		return fmt.Errorf("unsupported transaction type %q", tx.Type)
	}
	return nil
}

// Receipt summarises a successfully applied transaction.
type Receipt struct {
	ID     uuid.UUID
	Type   TxType
	Block  uint64
	Weight meter.Weight
	Events []Event
}
