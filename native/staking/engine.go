package staking

import (
	"fmt"
	"log/slog"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/types"
	"stakeledger/native/common"
	"stakeledger/observability/metrics"
)

const moduleName = common.ModuleStaking

type engineState interface {
	Owner(h types.HotKey) (types.ColdKey, bool, error)
	SetOwner(h types.HotKey, owner types.ColdKey) error
	OwnedHotkeys(c types.ColdKey) ([]types.HotKey, error)
	SetOwnedHotkeys(c types.ColdKey, hotkeys []types.HotKey) error
	StakingHotkeys(c types.ColdKey) ([]types.HotKey, error)
	SetStakingHotkeys(c types.ColdKey, hotkeys []types.HotKey) error
	IsDelegate(h types.HotKey) (bool, error)
	SetDelegate(h types.HotKey, take uint16) error

	Stake(h types.HotKey, c types.ColdKey) (uint64, error)
	SetStake(h types.HotKey, c types.ColdKey, amount uint64) error
	Alpha(h types.HotKey, c types.ColdKey, netuid types.SubnetID) (uint64, error)
	SetAlpha(h types.HotKey, c types.ColdKey, netuid types.SubnetID, amount uint64) error
	TotalHotkeyAlpha(h types.HotKey, netuid types.SubnetID) (uint64, error)
	SetTotalHotkeyAlpha(h types.HotKey, netuid types.SubnetID, amount uint64) error
	TotalHotkeyStake(h types.HotKey) (uint64, error)
	SetTotalHotkeyStake(h types.HotKey, amount uint64) error
	TotalColdkeyStake(c types.ColdKey) (uint64, error)
	SetTotalColdkeyStake(c types.ColdKey, amount uint64) error
	TotalStake() (uint64, error)
	SetTotalStake(amount uint64) error

	SubnetExists(netuid types.SubnetID) (bool, error)
	SubnetMechanism(netuid types.SubnetID) (types.Mechanism, error)
	SubnetAlpha(netuid types.SubnetID) (uint64, error)
	SetSubnetAlpha(netuid types.SubnetID, amount uint64) error
	SubnetTAO(netuid types.SubnetID) (uint64, error)
	SetSubnetTAO(netuid types.SubnetID, amount uint64) error

	StakesThisInterval(h types.HotKey, c types.ColdKey) (types.IntervalCounter, bool, error)
	SetStakesThisInterval(h types.HotKey, c types.ColdKey, counter types.IntervalCounter) error
	SetLastTxBlock(c types.ColdKey, block uint64) error

	Balance(c types.ColdKey) (uint64, error)
	Credit(c types.ColdKey, amount uint64) error
	Debit(c types.ColdKey, amount uint64) error
}

// Engine executes stake deposits and withdrawals against the ledger maps.
type Engine struct {
	state   engineState
	emitter events.Emitter
	block   func() uint64
	policy  Policy
	pauses  common.PauseView
	logger  *slog.Logger
	metrics *metrics.StakingMetrics
}

// NewEngine constructs a staking engine with the default policy and a no-op
// emitter.
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

// SetPolicy replaces the rate limiting parameters.
func (e *Engine) SetPolicy(policy Policy) { e.policy = policy }

// Policy returns the active rate limiting parameters.
func (e *Engine) Policy() Policy { return e.policy }

// SetPauses wires the module pause view consulted by every entry point.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetLogger configures the logger used for stake movements.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

func (e *Engine) reject(op string, err error) error {
	e.metrics.ObserveRejected(op, err)
	return err
}

// Withdraw moves amount subnet units held by caller on hotkey back into the
// caller's spendable balance. Every precondition is evaluated before the first
// write.
func (e *Engine) Withdraw(caller types.ColdKey, hotkey types.HotKey, netuid types.SubnetID, amount uint64) error {
	const op = "withdraw"
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return e.reject(op, err)
	}
	if e.state == nil {
		return fmt.Errorf("staking engine: state not configured")
	}
	if err := e.authorize(caller, hotkey); err != nil {
		return e.reject(op, err)
	}
	if amount == 0 {
		return e.reject(op, stakeerrors.ErrZeroAmount)
	}
	// Checked against the aggregate base-currency stake, not the subnet
	// position being withdrawn.
	staked, err := e.state.Stake(hotkey, caller)
	if err != nil {
		return err
	}
	if staked < amount {
		return e.reject(op, stakeerrors.ErrInsufficientStake)
	}
	block := e.block()
	counter, err := e.checkRate(hotkey, caller, block)
	if err != nil {
		return e.reject(op, err)
	}

	tao, err := e.alphaToTao(netuid, amount)
	if err != nil {
		return err
	}
	if err := decrement(e.state.TotalStake, e.state.SetTotalStake, tao); err != nil {
		return err
	}
	if err := decrement(
		func() (uint64, error) { return e.state.SubnetAlpha(netuid) },
		func(v uint64) error { return e.state.SetSubnetAlpha(netuid, v) },
		amount,
	); err != nil {
		return err
	}
	if err := decrement(
		func() (uint64, error) { return e.state.SubnetTAO(netuid) },
		func(v uint64) error { return e.state.SetSubnetTAO(netuid, v) },
		tao,
	); err != nil {
		return err
	}
	if err := e.state.SetStake(hotkey, caller, common.SaturatingSub(staked, tao)); err != nil {
		return err
	}
	if err := decrement(
		func() (uint64, error) { return e.state.TotalHotkeyAlpha(hotkey, netuid) },
		func(v uint64) error { return e.state.SetTotalHotkeyAlpha(hotkey, netuid, v) },
		amount,
	); err != nil {
		return err
	}
	if err := decrement(
		func() (uint64, error) { return e.state.Alpha(hotkey, caller, netuid) },
		func(v uint64) error { return e.state.SetAlpha(hotkey, caller, netuid, v) },
		amount,
	); err != nil {
		return err
	}
	if err := e.state.Credit(caller, tao); err != nil {
		return err
	}
	if err := e.recordRate(hotkey, caller, counter, block); err != nil {
		return err
	}

	e.emitter.Emit(events.StakeRemoved{Hotkey: hotkey, Amount: amount})
	e.metrics.ObserveWithdrawal(netuid, tao)
	e.logger.Info("stake withdrawn",
		slog.String("coldkey", caller.String()),
		slog.String("hotkey", hotkey.String()),
		slog.Uint64("netuid", uint64(netuid)),
		slog.Uint64("alpha", amount),
		slog.Uint64("tao", tao),
		slog.Uint64("block", block))
	return nil
}

// AddStake debits tao from the caller's balance and stakes it to hotkey on the
// given subnet.
func (e *Engine) AddStake(caller types.ColdKey, hotkey types.HotKey, netuid types.SubnetID, tao uint64) error {
	const op = "add_stake"
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return e.reject(op, err)
	}
	if e.state == nil {
		return fmt.Errorf("staking engine: state not configured")
	}
	if err := e.authorize(caller, hotkey); err != nil {
		return e.reject(op, err)
	}
	if tao == 0 {
		return e.reject(op, stakeerrors.ErrZeroAmount)
	}
	if netuid != types.RootSubnet {
		exists, err := e.state.SubnetExists(netuid)
		if err != nil {
			return err
		}
		if !exists {
			return e.reject(op, stakeerrors.ErrUnknownSubnet)
		}
	}
	balance, err := e.state.Balance(caller)
	if err != nil {
		return err
	}
	if balance < tao {
		return e.reject(op, stakeerrors.ErrInsufficientBalance)
	}
	block := e.block()
	counter, err := e.checkRate(hotkey, caller, block)
	if err != nil {
		return e.reject(op, err)
	}

	alpha, err := e.taoToAlpha(netuid, tao)
	if err != nil {
		return err
	}
	if err := e.state.Debit(caller, tao); err != nil {
		return err
	}
	if err := increment(e.state.TotalStake, e.state.SetTotalStake, tao); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.SubnetAlpha(netuid) },
		func(v uint64) error { return e.state.SetSubnetAlpha(netuid, v) },
		alpha,
	); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.SubnetTAO(netuid) },
		func(v uint64) error { return e.state.SetSubnetTAO(netuid, v) },
		tao,
	); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.Stake(hotkey, caller) },
		func(v uint64) error { return e.state.SetStake(hotkey, caller, v) },
		tao,
	); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.Alpha(hotkey, caller, netuid) },
		func(v uint64) error { return e.state.SetAlpha(hotkey, caller, netuid, v) },
		alpha,
	); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.TotalHotkeyAlpha(hotkey, netuid) },
		func(v uint64) error { return e.state.SetTotalHotkeyAlpha(hotkey, netuid, v) },
		alpha,
	); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.TotalHotkeyStake(hotkey) },
		func(v uint64) error { return e.state.SetTotalHotkeyStake(hotkey, v) },
		tao,
	); err != nil {
		return err
	}
	if err := increment(
		func() (uint64, error) { return e.state.TotalColdkeyStake(caller) },
		func(v uint64) error { return e.state.SetTotalColdkeyStake(caller, v) },
		tao,
	); err != nil {
		return err
	}
	staking, err := e.state.StakingHotkeys(caller)
	if err != nil {
		return err
	}
	if err := e.state.SetStakingHotkeys(caller, common.Union(staking, []types.HotKey{hotkey})); err != nil {
		return err
	}
	if err := e.recordRate(hotkey, caller, counter, block); err != nil {
		return err
	}

	e.emitter.Emit(events.StakeAdded{Hotkey: hotkey, Amount: tao})
	e.metrics.ObserveStakeAdded(netuid, tao)
	e.logger.Info("stake added",
		slog.String("coldkey", caller.String()),
		slog.String("hotkey", hotkey.String()),
		slog.Uint64("netuid", uint64(netuid)),
		slog.Uint64("tao", tao),
		slog.Uint64("alpha", alpha))
	return nil
}

// RegisterHotkey records caller as the owner of hotkey. Registering a hotkey
// the caller already owns is a no-op.
func (e *Engine) RegisterHotkey(caller types.ColdKey, hotkey types.HotKey) error {
	const op = "register_hotkey"
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return e.reject(op, err)
	}
	if e.state == nil {
		return fmt.Errorf("staking engine: state not configured")
	}
	owner, ok, err := e.state.Owner(hotkey)
	if err != nil {
		return err
	}
	if ok {
		if owner == caller {
			return nil
		}
		return e.reject(op, stakeerrors.ErrHotkeyAlreadyRegistered)
	}
	if err := e.state.SetOwner(hotkey, caller); err != nil {
		return err
	}
	owned, err := e.state.OwnedHotkeys(caller)
	if err != nil {
		return err
	}
	if err := e.state.SetOwnedHotkeys(caller, common.Union(owned, []types.HotKey{hotkey})); err != nil {
		return err
	}
	e.emitter.Emit(events.HotkeyRegistered{Coldkey: caller, Hotkey: hotkey})
	return nil
}

// BecomeDelegate opens an owned hotkey to stake from other coldkeys.
func (e *Engine) BecomeDelegate(caller types.ColdKey, hotkey types.HotKey, take uint16) error {
	const op = "become_delegate"
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return e.reject(op, err)
	}
	if e.state == nil {
		return fmt.Errorf("staking engine: state not configured")
	}
	owner, ok, err := e.state.Owner(hotkey)
	if err != nil {
		return err
	}
	if !ok {
		return e.reject(op, stakeerrors.ErrUnknownHotkey)
	}
	if owner != caller {
		return e.reject(op, stakeerrors.ErrUnauthorized)
	}
	isDelegate, err := e.state.IsDelegate(hotkey)
	if err != nil {
		return err
	}
	if isDelegate {
		return e.reject(op, stakeerrors.ErrAlreadyDelegate)
	}
	if err := e.state.SetDelegate(hotkey, take); err != nil {
		return err
	}
	e.emitter.Emit(events.DelegateAdded{Hotkey: hotkey, Take: take})
	return nil
}

func (e *Engine) authorize(caller types.ColdKey, hotkey types.HotKey) error {
	owner, ok, err := e.state.Owner(hotkey)
	if err != nil {
		return err
	}
	if !ok {
		return stakeerrors.ErrUnknownHotkey
	}
	if owner == caller {
		return nil
	}
	isDelegate, err := e.state.IsDelegate(hotkey)
	if err != nil {
		return err
	}
	if !isDelegate {
		return stakeerrors.ErrUnauthorized
	}
	return nil
}

func (e *Engine) checkRate(hotkey types.HotKey, caller types.ColdKey, block uint64) (types.IntervalCounter, error) {
	counter, _, err := e.state.StakesThisInterval(hotkey, caller)
	if err != nil {
		return types.IntervalCounter{}, err
	}
	if !e.policy.quota().Allows(counter, block) {
		return types.IntervalCounter{}, stakeerrors.ErrRateLimited
	}
	return counter, nil
}

func (e *Engine) recordRate(hotkey types.HotKey, caller types.ColdKey, counter types.IntervalCounter, block uint64) error {
	if err := e.state.SetLastTxBlock(caller, block); err != nil {
		return err
	}
	return e.state.SetStakesThisInterval(hotkey, caller, e.policy.quota().Record(counter, block))
}

func (e *Engine) alphaToTao(netuid types.SubnetID, alpha uint64) (uint64, error) {
	mechanism, err := e.state.SubnetMechanism(netuid)
	if err != nil {
		return 0, err
	}
	if mechanism != types.MechanismDynamic {
		return alpha, nil
	}
	taoReserve, err := e.state.SubnetTAO(netuid)
	if err != nil {
		return 0, err
	}
	alphaReserve, err := e.state.SubnetAlpha(netuid)
	if err != nil {
		return 0, err
	}
	return AlphaToTao(alpha, taoReserve, alphaReserve), nil
}

func (e *Engine) taoToAlpha(netuid types.SubnetID, tao uint64) (uint64, error) {
	mechanism, err := e.state.SubnetMechanism(netuid)
	if err != nil {
		return 0, err
	}
	if mechanism != types.MechanismDynamic {
		return tao, nil
	}
	taoReserve, err := e.state.SubnetTAO(netuid)
	if err != nil {
		return 0, err
	}
	alphaReserve, err := e.state.SubnetAlpha(netuid)
	if err != nil {
		return 0, err
	}
	return TaoToAlpha(tao, taoReserve, alphaReserve), nil
}

func decrement(get func() (uint64, error), set func(uint64) error, by uint64) error {
	current, err := get()
	if err != nil {
		return err
	}
	return set(common.SaturatingSub(current, by))
}

func increment(get func() (uint64, error), set func(uint64) error, by uint64) error {
	current, err := get()
	if err != nil {
		return err
	}
	return set(common.SaturatingAdd(current, by))
}
