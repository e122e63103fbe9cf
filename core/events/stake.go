package events

import (
	"strconv"

	"stakeledger/core/types"
)

const (
	// TypeStakeRemoved is emitted once a withdrawal has been credited.
	TypeStakeRemoved = "stake.removed"
	// TypeStakeAdded is emitted once a deposit has been staked.
	TypeStakeAdded = "stake.added"
	// TypeHotkeyRegistered is emitted when a coldkey claims a hotkey.
	TypeHotkeyRegistered = "stake.hotkeyRegistered"
	// TypeDelegateAdded is emitted when a hotkey starts accepting delegated stake.
	TypeDelegateAdded = "stake.delegateAdded"
)

// StakeRemoved carries the hotkey and the subnet-unit amount withdrawn.
type StakeRemoved struct {
	Hotkey types.HotKey
	Amount uint64
}

// EventType satisfies the Event interface.
func (StakeRemoved) EventType() string { return TypeStakeRemoved }

// Event converts the structured payload into a broadcastable event.
func (e StakeRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeRemoved,
		Attributes: map[string]string{
			"hotkey": e.Hotkey.String(),
			"amount": strconv.FormatUint(e.Amount, 10),
		},
	}
}

// StakeAdded carries the hotkey and the base-currency amount staked.
type StakeAdded struct {
	Hotkey types.HotKey
	Amount uint64
}

func (StakeAdded) EventType() string { return TypeStakeAdded }

func (e StakeAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeAdded,
		Attributes: map[string]string{
			"hotkey": e.Hotkey.String(),
			"amount": strconv.FormatUint(e.Amount, 10),
		},
	}
}

// HotkeyRegistered records a new hotkey ownership.
type HotkeyRegistered struct {
	Coldkey types.ColdKey
	Hotkey  types.HotKey
}

func (HotkeyRegistered) EventType() string { return TypeHotkeyRegistered }

func (e HotkeyRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeHotkeyRegistered,
		Attributes: map[string]string{
			"coldkey": e.Coldkey.String(),
			"hotkey":  e.Hotkey.String(),
		},
	}
}

// DelegateAdded records a hotkey opening itself to delegated stake.
type DelegateAdded struct {
	Hotkey types.HotKey
	Take   uint16
}

func (DelegateAdded) EventType() string { return TypeDelegateAdded }

func (e DelegateAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeDelegateAdded,
		Attributes: map[string]string{
			"hotkey": e.Hotkey.String(),
			"take":   strconv.FormatUint(uint64(e.Take), 10),
		},
	}
}
