// Package meter counts logical storage accesses so callers can charge for an
// operation in proportion to the ledger footprint it touched. Pricing is left
// to the caller.
package meter

import "github.com/iotaledger/hive.go/core/safemath"

// Weight accumulates read and write counts. The zero value is ready to use.
type Weight struct {
	Reads  uint64
	Writes uint64
}

// ReadsWrites returns a weight with the given counts.
func ReadsWrites(reads, writes uint64) Weight {
	return Weight{Reads: reads, Writes: writes}
}

// AddReads accrues n reads, clamping at the maximum.
func (w *Weight) AddReads(n uint64) {
	if w == nil {
		return
	}
	w.Reads = saturatingAdd(w.Reads, n)
}

// AddWrites accrues n writes, clamping at the maximum.
func (w *Weight) AddWrites(n uint64) {
	if w == nil {
		return
	}
	w.Writes = saturatingAdd(w.Writes, n)
}

// Accrue adds reads and writes in one call.
func (w *Weight) Accrue(reads, writes uint64) {
	w.AddReads(reads)
	w.AddWrites(writes)
}

// Add merges another weight into w.
func (w *Weight) Add(other Weight) {
	w.Accrue(other.Reads, other.Writes)
}

// Cost prices the weight with per-access costs.
func (w Weight) Cost(readCost, writeCost uint64) uint64 {
	return saturatingAdd(saturatingMul(w.Reads, readCost), saturatingMul(w.Writes, writeCost))
}

func saturatingAdd(a, b uint64) uint64 {
	sum, err := safemath.SafeAdd(a, b)
	if err != nil {
		return ^uint64(0)
	}
	return sum
}

func saturatingMul(a, b uint64) uint64 {
	product, err := safemath.SafeMul(a, b)
	if err != nil {
		return ^uint64(0)
	}
	return product
}
