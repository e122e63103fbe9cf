package events

import "stakeledger/core/types"

const (
	// TypeColdkeySwapped is emitted after an account footprint moved coldkeys.
	TypeColdkeySwapped = "keyswap.coldkeySwapped"
	// TypeSenateMemberSwapped is emitted when a governance seat changes hotkey.
	TypeSenateMemberSwapped = "keyswap.senateMemberSwapped"
)

// ColdkeySwapped records the relocation of a coldkey's ledger footprint.
type ColdkeySwapped struct {
	Old types.ColdKey
	New types.ColdKey
}

// EventType satisfies the Event interface.
func (ColdkeySwapped) EventType() string { return TypeColdkeySwapped }

// Event converts the structured payload into a broadcastable event.
func (e ColdkeySwapped) Event() *types.Event {
	return &types.Event{
		Type: TypeColdkeySwapped,
		Attributes: map[string]string{
			"old": e.Old.String(),
			"new": e.New.String(),
		},
	}
}

// SenateMemberSwapped records a governance seat moving between hotkeys.
type SenateMemberSwapped struct {
	Old types.HotKey
	New types.HotKey
}

func (SenateMemberSwapped) EventType() string { return TypeSenateMemberSwapped }

func (e SenateMemberSwapped) Event() *types.Event {
	return &types.Event{
		Type: TypeSenateMemberSwapped,
		Attributes: map[string]string{
			"old": e.Old.String(),
			"new": e.New.String(),
		},
	}
}
