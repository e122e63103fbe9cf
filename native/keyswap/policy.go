package keyswap

// DefaultKeySwapCost is charged to the old coldkey on every guarded swap.
const DefaultKeySwapCost = 1_000_000_000

// Policy captures the economic parameters of guarded coldkey swaps.
type Policy struct {
	KeySwapCost uint64
}

// DefaultPolicy returns the network defaults.
func DefaultPolicy() Policy {
	return Policy{KeySwapCost: DefaultKeySwapCost}
}
