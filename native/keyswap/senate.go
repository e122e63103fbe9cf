package keyswap

import (
	"fmt"
	"log/slog"

	"stakeledger/core/events"
	"stakeledger/core/meter"
	"stakeledger/core/types"
	"stakeledger/native/common"
)

// SwapMembership moves old's governance seat to new. A hotkey without a seat
// is not an error: the membership read is metered and nothing changes.
func (e *Engine) SwapMembership(oldKey, newKey types.HotKey, w *meter.Weight) error {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return e.reject("swap_membership", err)
	}
	if e.state == nil {
		return fmt.Errorf("keyswap engine: state not configured")
	}
	isMember, err := e.state.IsSenateMember(oldKey)
	if err != nil {
		return err
	}
	if !isMember {
		w.AddReads(1)
		e.metrics.ObserveSenateSwap(false)
		return nil
	}
	if err := e.state.RemoveSenateMember(oldKey); err != nil {
		return err
	}
	if err := e.state.AddSenateMember(newKey); err != nil {
		return err
	}
	w.Accrue(2, 2)
	e.emitter.Emit(events.SenateMemberSwapped{Old: oldKey, New: newKey})
	e.metrics.ObserveSenateSwap(true)
	e.logger.Info("senate member swapped",
		slog.String("oldKey", oldKey.String()),
		slog.String("newKey", newKey.String()))
	return nil
}
