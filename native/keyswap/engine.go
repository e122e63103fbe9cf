// Package keyswap relocates ledger state between identities: a coldkey's full
// footprint during a coldkey swap, and single governance seats between
// hotkeys.
package keyswap

import (
	"fmt"
	"log/slog"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/meter"
	"stakeledger/core/types"
	"stakeledger/native/common"
	"stakeledger/observability/metrics"
)

const moduleName = common.ModuleKeySwap

type engineState interface {
	HotkeyExists(h types.HotKey) (bool, error)
	SetOwner(h types.HotKey, owner types.ColdKey) error
	OwnedHotkeys(c types.ColdKey) ([]types.HotKey, error)
	SetOwnedHotkeys(c types.ColdKey, hotkeys []types.HotKey) error
	StakingHotkeys(c types.ColdKey) ([]types.HotKey, error)
	SetStakingHotkeys(c types.ColdKey, hotkeys []types.HotKey) error

	Stake(h types.HotKey, c types.ColdKey) (uint64, error)
	SetStake(h types.HotKey, c types.ColdKey, amount uint64) error
	Alpha(h types.HotKey, c types.ColdKey, netuid types.SubnetID) (uint64, error)
	SetAlpha(h types.HotKey, c types.ColdKey, netuid types.SubnetID, amount uint64) error
	TotalColdkeyStake(c types.ColdKey) (uint64, error)
	SetTotalColdkeyStake(c types.ColdKey, amount uint64) error
	TotalIssuance() (uint64, error)
	SetTotalIssuance(amount uint64) error

	StakesThisInterval(h types.HotKey, c types.ColdKey) (types.IntervalCounter, bool, error)
	SetStakesThisInterval(h types.HotKey, c types.ColdKey, counter types.IntervalCounter) error
	DeleteStakesThisInterval(h types.HotKey, c types.ColdKey) error
	SetLastTxBlock(c types.ColdKey, block uint64) error

	Subnets() ([]types.SubnetID, error)
	SubnetOwner(netuid types.SubnetID) (types.ColdKey, bool, error)
	SetSubnetOwner(netuid types.SubnetID, owner types.ColdKey) error

	Balance(c types.ColdKey) (uint64, error)
	Credit(c types.ColdKey, amount uint64) error
	Debit(c types.ColdKey, amount uint64) error

	IsSenateMember(h types.HotKey) (bool, error)
	AddSenateMember(h types.HotKey) error
	RemoveSenateMember(h types.HotKey) error
}

// Engine performs identity migrations over the ledger maps.
type Engine struct {
	state   engineState
	emitter events.Emitter
	block   func() uint64
	policy  Policy
	pauses  common.PauseView
	logger  *slog.Logger
	metrics *metrics.StakingMetrics
}

// NewEngine constructs a key swap engine with the default policy.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		block:   func() uint64 { return 0 },
		policy:  DefaultPolicy(),
		logger:  slog.Default(),
		metrics: metrics.Staking(),
	}
}

// SetState wires the engine to the ledger state.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetBlockFunc overrides the current block source.
func (e *Engine) SetBlockFunc(block func() uint64) {
	if block == nil {
		block = func() uint64 { return 0 }
	}
	e.block = block
}

// SetPolicy replaces the swap cost parameters.
func (e *Engine) SetPolicy(policy Policy) { e.policy = policy }

// SetPauses wires the module pause view consulted by every entry point.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetLogger configures the logger used for swap records.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SwapColdkey is the guarded entry point for a coldkey swap: it validates the
// destination, charges the swap cost to old and then migrates the footprint.
// The returned weight covers the checks and the migration.
func (e *Engine) SwapColdkey(oldKey, newKey types.ColdKey) (meter.Weight, error) {
	const op = "swap_coldkey"
	var w meter.Weight
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return w, e.reject(op, err)
	}
	if e.state == nil {
		return w, fmt.Errorf("keyswap engine: state not configured")
	}
	if oldKey == newKey {
		return w, e.reject(op, stakeerrors.ErrSameColdkey)
	}
	staking, err := e.state.StakingHotkeys(newKey)
	if err != nil {
		return w, err
	}
	owned, err := e.state.OwnedHotkeys(newKey)
	if err != nil {
		return w, err
	}
	w.AddReads(2)
	if len(staking) > 0 || len(owned) > 0 {
		return w, e.reject(op, stakeerrors.ErrColdkeyAlreadyAssociated)
	}
	isHotkey, err := e.state.HotkeyExists(newKey.AsHotKey())
	if err != nil {
		return w, err
	}
	w.AddReads(1)
	if isHotkey {
		return w, e.reject(op, stakeerrors.ErrNewColdkeyIsHotkey)
	}
	balance, err := e.state.Balance(oldKey)
	if err != nil {
		return w, err
	}
	w.AddReads(1)
	cost := e.policy.KeySwapCost
	if balance < cost {
		return w, e.reject(op, fmt.Errorf("swap cost %d exceeds balance %d: %w", cost, balance, stakeerrors.ErrInsufficientBalance))
	}

	if cost > 0 {
		if err := e.state.Debit(oldKey, cost); err != nil {
			return w, err
		}
		issuance, err := e.state.TotalIssuance()
		if err != nil {
			return w, err
		}
		if err := e.state.SetTotalIssuance(common.SaturatingSub(issuance, cost)); err != nil {
			return w, err
		}
		w.Accrue(1, 2)
	}
	if err := e.MigrateIdentity(oldKey, newKey, &w); err != nil {
		return w, err
	}
	if err := e.state.SetLastTxBlock(newKey, e.block()); err != nil {
		return w, err
	}
	w.AddWrites(1)
	return w, nil
}

func (e *Engine) reject(op string, err error) error {
	e.metrics.ObserveRejected(op, err)
	return err
}
