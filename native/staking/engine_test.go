package staking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/state"
	"stakeledger/core/types"
	"stakeledger/native/common"
	"stakeledger/storage"
	"stakeledger/storage/trie"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

type stubPauseView struct {
	modules map[string]bool
}

func (s stubPauseView) IsPaused(module string) bool {
	if s.modules == nil {
		return false
	}
	return s.modules[module]
}

type fixture struct {
	mgr     *state.Manager
	engine  *Engine
	emitter *captureEmitter
	block   uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)

	f := &fixture{mgr: state.NewManager(tr), emitter: &captureEmitter{}, block: 100}
	f.engine = NewEngine()
	f.engine.SetState(f.mgr)
	f.engine.SetEmitter(f.emitter)
	f.engine.SetBlockFunc(func() uint64 { return f.block })
	f.engine.SetPolicy(Policy{TargetStakesPerInterval: 2, StakeIntervalBlocks: 10})
	return f
}

func coldKey(b byte) types.ColdKey {
	var c types.ColdKey
	c[0] = 0xc0
	c[31] = b
	return c
}

func hotKey(b byte) types.HotKey {
	var h types.HotKey
	h[0] = 0xa0
	h[31] = b
	return h
}

// seedPosition records a fixed-mechanism position of amount on (h, c, netuid)
// with matching aggregates.
func (f *fixture) seedPosition(t *testing.T, h types.HotKey, c types.ColdKey, netuid types.SubnetID, amount uint64) {
	t.Helper()
	add := func(get func() (uint64, error), set func(uint64) error) {
		current, err := get()
		require.NoError(t, err)
		require.NoError(t, set(current+amount))
	}
	add(f.mgr.TotalStake, f.mgr.SetTotalStake)
	add(func() (uint64, error) { return f.mgr.SubnetAlpha(netuid) }, func(v uint64) error { return f.mgr.SetSubnetAlpha(netuid, v) })
	add(func() (uint64, error) { return f.mgr.SubnetTAO(netuid) }, func(v uint64) error { return f.mgr.SetSubnetTAO(netuid, v) })
	add(func() (uint64, error) { return f.mgr.Stake(h, c) }, func(v uint64) error { return f.mgr.SetStake(h, c, v) })
	add(func() (uint64, error) { return f.mgr.Alpha(h, c, netuid) }, func(v uint64) error { return f.mgr.SetAlpha(h, c, netuid, v) })
	add(func() (uint64, error) { return f.mgr.TotalHotkeyAlpha(h, netuid) }, func(v uint64) error { return f.mgr.SetTotalHotkeyAlpha(h, netuid, v) })
	add(func() (uint64, error) { return f.mgr.TotalColdkeyStake(c) }, func(v uint64) error { return f.mgr.SetTotalColdkeyStake(c, v) })
	staking, err := f.mgr.StakingHotkeys(c)
	require.NoError(t, err)
	require.NoError(t, f.mgr.SetStakingHotkeys(c, append(staking, h)))
}

func (f *fixture) register(t *testing.T, c types.ColdKey, h types.HotKey) {
	t.Helper()
	require.NoError(t, f.engine.RegisterHotkey(c, h))
}

func mustUint(t *testing.T) func(uint64, error) uint64 {
	t.Helper()
	return func(v uint64, err error) uint64 {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func TestWithdrawFixedMechanismConserves(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	require.NoError(t, f.mgr.AddSubnet(1, types.MechanismFixed, coldKey(9)))
	f.seedPosition(t, hk, owner, 1, 1_000)

	require.NoError(t, f.engine.Withdraw(owner, hk, 1, 400))

	require.Equal(t, uint64(600), mustUint(t)(f.mgr.TotalStake()))
	require.Equal(t, uint64(600), mustUint(t)(f.mgr.Stake(hk, owner)))
	require.Equal(t, uint64(600), mustUint(t)(f.mgr.Alpha(hk, owner, 1)))
	require.Equal(t, uint64(600), mustUint(t)(f.mgr.TotalHotkeyAlpha(hk, 1)))
	require.Equal(t, uint64(600), mustUint(t)(f.mgr.SubnetAlpha(1)))
	require.Equal(t, uint64(600), mustUint(t)(f.mgr.SubnetTAO(1)))
	require.Equal(t, uint64(400), mustUint(t)(f.mgr.Balance(owner)))
	require.Equal(t, uint64(100), mustUint(t)(f.mgr.LastTxBlock(owner)))
	// Withdrawal leaves the per-coldkey aggregate as it was.
	require.Equal(t, uint64(1_000), mustUint(t)(f.mgr.TotalColdkeyStake(owner)))

	counter, ok, err := f.mgr.StakesThisInterval(hk, owner)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.IntervalCounter{Count: 1, LastBlock: 100}, counter)

	require.Len(t, f.emitter.events, 2)
	removed, ok := f.emitter.events[1].(events.StakeRemoved)
	require.True(t, ok)
	require.Equal(t, hk, removed.Hotkey)
	require.Equal(t, uint64(400), removed.Amount)
}

func TestWithdrawPreconditionOrder(t *testing.T) {
	f := newFixture(t)
	owner, stranger, hk := coldKey(1), coldKey(2), hotKey(1)

	err := f.engine.Withdraw(owner, hk, 0, 0)
	require.ErrorIs(t, err, stakeerrors.ErrUnknownHotkey)

	f.register(t, owner, hk)
	err = f.engine.Withdraw(stranger, hk, 0, 0)
	require.ErrorIs(t, err, stakeerrors.ErrUnauthorized)

	err = f.engine.Withdraw(owner, hk, 0, 0)
	require.ErrorIs(t, err, stakeerrors.ErrZeroAmount)

	f.seedPosition(t, hk, owner, 0, 50)
	err = f.engine.Withdraw(owner, hk, 0, 51)
	require.ErrorIs(t, err, stakeerrors.ErrInsufficientStake)
}

func TestWithdrawFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	f.seedPosition(t, hk, owner, 0, 50)
	before := f.mgr.Trie().Hash()
	emitted := len(f.emitter.events)

	require.Error(t, f.engine.Withdraw(owner, hk, 0, 500))
	require.Error(t, f.engine.Withdraw(coldKey(7), hk, 0, 5))
	require.Equal(t, before, f.mgr.Trie().Hash())
	require.Len(t, f.emitter.events, emitted)
}

func TestWithdrawRateLimited(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	f.seedPosition(t, hk, owner, 0, 1_000)

	require.NoError(t, f.engine.Withdraw(owner, hk, 0, 10))
	f.block++
	require.NoError(t, f.engine.Withdraw(owner, hk, 0, 10))
	f.block++
	err := f.engine.Withdraw(owner, hk, 0, 10)
	require.ErrorIs(t, err, stakeerrors.ErrRateLimited)
	require.Equal(t, uint64(980), mustUint(t)(f.mgr.Stake(hk, owner)))

	// The window restarts once IntervalBlocks have passed since the last
	// recorded operation.
	f.block = 101 + 10
	require.NoError(t, f.engine.Withdraw(owner, hk, 0, 10))
	counter, _, err := f.mgr.StakesThisInterval(hk, owner)
	require.NoError(t, err)
	require.Equal(t, types.IntervalCounter{Count: 1, LastBlock: 111}, counter)
}

func TestWithdrawByDelegator(t *testing.T) {
	f := newFixture(t)
	owner, delegator, hk := coldKey(1), coldKey(2), hotKey(1)
	f.register(t, owner, hk)
	f.seedPosition(t, hk, delegator, 0, 300)

	err := f.engine.Withdraw(delegator, hk, 0, 100)
	require.ErrorIs(t, err, stakeerrors.ErrUnauthorized)

	require.NoError(t, f.engine.BecomeDelegate(owner, hk, 1_000))
	require.NoError(t, f.engine.Withdraw(delegator, hk, 0, 100))
	require.Equal(t, uint64(200), mustUint(t)(f.mgr.Stake(hk, delegator)))
	require.Equal(t, uint64(100), mustUint(t)(f.mgr.Balance(delegator)))
}

func TestWithdrawDynamicMechanismConverts(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	require.NoError(t, f.mgr.AddSubnet(5, types.MechanismDynamic, coldKey(9)))
	require.NoError(t, f.mgr.SetSubnetAlpha(5, 2_000))
	require.NoError(t, f.mgr.SetSubnetTAO(5, 1_000))
	require.NoError(t, f.mgr.SetAlpha(hk, owner, 5, 400))
	require.NoError(t, f.mgr.SetTotalHotkeyAlpha(hk, 5, 400))
	require.NoError(t, f.mgr.SetStake(hk, owner, 400))
	require.NoError(t, f.mgr.SetTotalStake(1_000))

	require.NoError(t, f.engine.Withdraw(owner, hk, 5, 400))

	// 400 alpha at 1000 tao / 2000 alpha is worth 200 tao.
	require.Equal(t, uint64(200), mustUint(t)(f.mgr.Balance(owner)))
	require.Equal(t, uint64(200), mustUint(t)(f.mgr.Stake(hk, owner)))
	require.Equal(t, uint64(800), mustUint(t)(f.mgr.TotalStake()))
	require.Equal(t, uint64(1_600), mustUint(t)(f.mgr.SubnetAlpha(5)))
	require.Equal(t, uint64(800), mustUint(t)(f.mgr.SubnetTAO(5)))
	require.Zero(t, mustUint(t)(f.mgr.Alpha(hk, owner, 5)))
	require.Zero(t, mustUint(t)(f.mgr.TotalHotkeyAlpha(hk, 5)))
}

func TestWithdrawSaturatesInconsistentTotals(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	require.NoError(t, f.mgr.SetStake(hk, owner, 100))

	require.NoError(t, f.engine.Withdraw(owner, hk, 0, 100))
	require.Zero(t, mustUint(t)(f.mgr.TotalStake()))
	require.Zero(t, mustUint(t)(f.mgr.SubnetAlpha(0)))
	require.Equal(t, uint64(100), mustUint(t)(f.mgr.Balance(owner)))
}

func TestWithdrawPaused(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	f.seedPosition(t, hk, owner, 0, 100)
	f.engine.SetPauses(stubPauseView{modules: map[string]bool{common.ModuleStaking: true}})

	err := f.engine.Withdraw(owner, hk, 0, 10)
	require.True(t, errors.Is(err, common.ErrModulePaused))
	require.Equal(t, uint64(100), mustUint(t)(f.mgr.Stake(hk, owner)))
}

func TestAddStakeThenWithdraw(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	require.NoError(t, f.mgr.Credit(owner, 1_000))

	require.NoError(t, f.engine.AddStake(owner, hk, types.RootSubnet, 700))
	require.Equal(t, uint64(300), mustUint(t)(f.mgr.Balance(owner)))
	require.Equal(t, uint64(700), mustUint(t)(f.mgr.Stake(hk, owner)))
	require.Equal(t, uint64(700), mustUint(t)(f.mgr.TotalColdkeyStake(owner)))
	require.Equal(t, uint64(700), mustUint(t)(f.mgr.TotalHotkeyStake(hk)))
	staking, err := f.mgr.StakingHotkeys(owner)
	require.NoError(t, err)
	require.Equal(t, []types.HotKey{hk}, staking)

	f.block += 10
	require.NoError(t, f.engine.Withdraw(owner, hk, types.RootSubnet, 700))
	require.Equal(t, uint64(1_000), mustUint(t)(f.mgr.Balance(owner)))
	require.Zero(t, mustUint(t)(f.mgr.TotalStake()))
}

func TestAddStakeRejections(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	require.NoError(t, f.mgr.Credit(owner, 10))

	require.ErrorIs(t, f.engine.AddStake(owner, hk, 0, 11), stakeerrors.ErrInsufficientBalance)
	require.ErrorIs(t, f.engine.AddStake(owner, hk, 42, 5), stakeerrors.ErrUnknownSubnet)
	require.ErrorIs(t, f.engine.AddStake(owner, hk, 0, 0), stakeerrors.ErrZeroAmount)
	require.Equal(t, uint64(10), mustUint(t)(f.mgr.Balance(owner)))
}

func TestAddStakeDynamicMintsAtReservePrice(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)
	f.register(t, owner, hk)
	require.NoError(t, f.mgr.AddSubnet(3, types.MechanismDynamic, coldKey(9)))
	require.NoError(t, f.mgr.SetSubnetAlpha(3, 4_000))
	require.NoError(t, f.mgr.SetSubnetTAO(3, 1_000))
	require.NoError(t, f.mgr.Credit(owner, 100))

	require.NoError(t, f.engine.AddStake(owner, hk, 3, 100))
	require.Equal(t, uint64(400), mustUint(t)(f.mgr.Alpha(hk, owner, 3)))
	require.Equal(t, uint64(100), mustUint(t)(f.mgr.Stake(hk, owner)))
	require.Equal(t, uint64(4_400), mustUint(t)(f.mgr.SubnetAlpha(3)))
	require.Equal(t, uint64(1_100), mustUint(t)(f.mgr.SubnetTAO(3)))
}

func TestRegisterHotkey(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)

	f.register(t, owner, hk)
	f.register(t, owner, hk)
	owned, err := f.mgr.OwnedHotkeys(owner)
	require.NoError(t, err)
	require.Equal(t, []types.HotKey{hk}, owned)
	require.Len(t, f.emitter.events, 1)

	err = f.engine.RegisterHotkey(coldKey(2), hk)
	require.ErrorIs(t, err, stakeerrors.ErrHotkeyAlreadyRegistered)
}

func TestBecomeDelegate(t *testing.T) {
	f := newFixture(t)
	owner, hk := coldKey(1), hotKey(1)

	require.ErrorIs(t, f.engine.BecomeDelegate(owner, hk, 10), stakeerrors.ErrUnknownHotkey)
	f.register(t, owner, hk)
	require.ErrorIs(t, f.engine.BecomeDelegate(coldKey(2), hk, 10), stakeerrors.ErrUnauthorized)
	require.NoError(t, f.engine.BecomeDelegate(owner, hk, 10))
	require.ErrorIs(t, f.engine.BecomeDelegate(owner, hk, 10), stakeerrors.ErrAlreadyDelegate)
}

func TestConversion(t *testing.T) {
	require.Equal(t, uint64(50), AlphaToTao(100, 1, 2))
	require.Zero(t, AlphaToTao(100, 1_000, 0))
	require.Equal(t, ^uint64(0), AlphaToTao(^uint64(0), ^uint64(0), 1))
	require.Equal(t, uint64(200), TaoToAlpha(100, 1, 2))
	require.Equal(t, uint64(100), TaoToAlpha(100, 0, 0))
	require.Equal(t, ^uint64(0)/2, AlphaToTao(^uint64(0), ^uint64(0)/2, ^uint64(0)))
}
