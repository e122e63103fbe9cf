package types

// IntervalCounter is the per (hotkey, coldkey) rate-limit window state: how
// many stake operations happened in the window and the block of the latest.
type IntervalCounter struct {
	Count     uint64
	LastBlock uint64
}
