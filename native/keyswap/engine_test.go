package keyswap

import (
	"testing"

	"github.com/stretchr/testify/require"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/meter"
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
	return s.modules[module]
}

type fixture struct {
	mgr     *state.Manager
	engine  *Engine
	emitter *captureEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)

	f := &fixture{mgr: state.NewManager(tr), emitter: &captureEmitter{}}
	f.engine = NewEngine()
	f.engine.SetState(f.mgr)
	f.engine.SetEmitter(f.emitter)
	f.engine.SetBlockFunc(func() uint64 { return 77 })
	f.engine.SetPolicy(Policy{KeySwapCost: 10})
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

func mustUint(t *testing.T) func(uint64, error) uint64 {
	t.Helper()
	return func(v uint64, err error) uint64 {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func mustBool(t *testing.T) func(bool, error) bool {
	t.Helper()
	return func(v bool, err error) bool {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func (f *fixture) own(t *testing.T, c types.ColdKey, hotkeys ...types.HotKey) {
	t.Helper()
	for _, h := range hotkeys {
		require.NoError(t, f.mgr.SetOwner(h, c))
	}
	owned, err := f.mgr.OwnedHotkeys(c)
	require.NoError(t, err)
	require.NoError(t, f.mgr.SetOwnedHotkeys(c, append(owned, hotkeys...)))
}

// stake records amount of root-subnet stake from c on h and keeps the
// aggregates consistent.
func (f *fixture) stake(t *testing.T, h types.HotKey, c types.ColdKey, amount uint64) {
	t.Helper()
	current := mustUint(t)(f.mgr.Stake(h, c))
	require.NoError(t, f.mgr.SetStake(h, c, current+amount))
	alpha := mustUint(t)(f.mgr.Alpha(h, c, types.RootSubnet))
	require.NoError(t, f.mgr.SetAlpha(h, c, types.RootSubnet, alpha+amount))
	total := mustUint(t)(f.mgr.TotalColdkeyStake(c))
	require.NoError(t, f.mgr.SetTotalColdkeyStake(c, total+amount))
	hotTotal := mustUint(t)(f.mgr.TotalHotkeyStake(h))
	require.NoError(t, f.mgr.SetTotalHotkeyStake(h, hotTotal+amount))
	network := mustUint(t)(f.mgr.TotalStake())
	require.NoError(t, f.mgr.SetTotalStake(network+amount))
	staking, err := f.mgr.StakingHotkeys(c)
	require.NoError(t, err)
	require.NoError(t, f.mgr.SetStakingHotkeys(c, append(staking, h)))
}

func TestMigrateMergesIntoExistingStake(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey := coldKey(1), coldKey(2)
	hkA, hkB := hotKey(0xA), hotKey(0xB)
	f.own(t, oldKey, hkA, hkB)
	f.stake(t, hkA, oldKey, 1_000)
	f.stake(t, hkB, oldKey, 2_000)
	f.stake(t, hkA, newKey, 3_000)
	require.NoError(t, f.mgr.SetTotalIssuance(50_000))

	var w meter.Weight
	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, &w))

	require.Equal(t, uint64(4_000), mustUint(t)(f.mgr.Stake(hkA, newKey)))
	require.Equal(t, uint64(2_000), mustUint(t)(f.mgr.Stake(hkB, newKey)))
	require.Zero(t, mustUint(t)(f.mgr.Stake(hkA, oldKey)))
	require.Zero(t, mustUint(t)(f.mgr.Stake(hkB, oldKey)))
	require.Equal(t, uint64(4_000), mustUint(t)(f.mgr.Alpha(hkA, newKey, types.RootSubnet)))
	require.Zero(t, mustUint(t)(f.mgr.Alpha(hkA, oldKey, types.RootSubnet)))
	require.Equal(t, uint64(6_000), mustUint(t)(f.mgr.TotalColdkeyStake(newKey)))
	require.Zero(t, mustUint(t)(f.mgr.TotalColdkeyStake(oldKey)))

	owned, err := f.mgr.OwnedHotkeys(newKey)
	require.NoError(t, err)
	require.Equal(t, []types.HotKey{hkA, hkB}, owned)
	owned, err = f.mgr.OwnedHotkeys(oldKey)
	require.NoError(t, err)
	require.Empty(t, owned)

	staking, err := f.mgr.StakingHotkeys(newKey)
	require.NoError(t, err)
	require.Equal(t, []types.HotKey{hkA, hkB}, staking)

	for _, h := range []types.HotKey{hkA, hkB} {
		owner, ok, err := f.mgr.Owner(h)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, newKey, owner)
	}

	// Per-hotkey totals and network totals are untouched.
	require.Equal(t, uint64(4_000), mustUint(t)(f.mgr.TotalHotkeyStake(hkA)))
	require.Equal(t, uint64(6_000), mustUint(t)(f.mgr.TotalStake()))
	require.Equal(t, uint64(50_000), mustUint(t)(f.mgr.TotalIssuance()))

	require.NotZero(t, w.Reads)
	require.NotZero(t, w.Writes)
	require.Len(t, f.emitter.events, 1)
	swapped, ok := f.emitter.events[0].(events.ColdkeySwapped)
	require.True(t, ok)
	require.Equal(t, events.ColdkeySwapped{Old: oldKey, New: newKey}, swapped)
}

func TestMigrateConservesColdkeyTotals(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey, other := coldKey(1), coldKey(2), coldKey(3)
	f.own(t, oldKey, hotKey(1))
	f.own(t, other, hotKey(2))
	f.stake(t, hotKey(1), oldKey, 500)
	f.stake(t, hotKey(2), oldKey, 700)
	f.stake(t, hotKey(2), other, 900)
	f.stake(t, hotKey(1), newKey, 100)

	sum := func() uint64 {
		var total uint64
		for _, c := range []types.ColdKey{oldKey, newKey, other} {
			total += mustUint(t)(f.mgr.TotalColdkeyStake(c))
		}
		return total
	}
	before := sum()
	totalStake := mustUint(t)(f.mgr.TotalStake())

	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))
	require.Equal(t, before, sum())
	require.Equal(t, totalStake, mustUint(t)(f.mgr.TotalStake()))

	// Each coldkey total still equals the sum of its stake entries.
	require.Equal(t,
		mustUint(t)(f.mgr.Stake(hotKey(1), newKey))+mustUint(t)(f.mgr.Stake(hotKey(2), newKey)),
		mustUint(t)(f.mgr.TotalColdkeyStake(newKey)))
}

func TestMigrateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey := coldKey(1), coldKey(2)
	f.own(t, oldKey, hotKey(1))
	f.stake(t, hotKey(1), oldKey, 1_000)
	require.NoError(t, f.mgr.Credit(oldKey, 250))
	require.NoError(t, f.mgr.AddSubnet(4, types.MechanismDynamic, oldKey))
	require.NoError(t, f.mgr.SetStakesThisInterval(hotKey(1), oldKey, types.IntervalCounter{Count: 1, LastBlock: 9}))

	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))
	once := f.mgr.Trie().Hash()
	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))
	require.Equal(t, once, f.mgr.Trie().Hash())
}

func TestMigrateEmptySourceIsNoop(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey := coldKey(1), coldKey(2)
	f.own(t, newKey, hotKey(1))
	f.stake(t, hotKey(1), newKey, 400)
	require.NoError(t, f.mgr.Credit(newKey, 90))
	before := f.mgr.Trie().Hash()

	var w meter.Weight
	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, &w))
	require.Equal(t, before, f.mgr.Trie().Hash())
	require.NotZero(t, w.Reads)
}

func TestMigrateOntoSelfLeavesAccountIntact(t *testing.T) {
	f := newFixture(t)
	c := coldKey(1)
	f.own(t, c, hotKey(1))
	f.stake(t, hotKey(1), c, 1_000)
	require.NoError(t, f.mgr.Credit(c, 500))
	before := f.mgr.Trie().Hash()

	var w meter.Weight
	require.NoError(t, f.engine.MigrateIdentity(c, c, &w))
	require.Equal(t, meter.ReadsWrites(1, 0), w)
	require.Equal(t, before, f.mgr.Trie().Hash())
	require.Equal(t, uint64(1_000), mustUint(t)(f.mgr.Stake(hotKey(1), c)))
	require.Equal(t, uint64(1_000), mustUint(t)(f.mgr.TotalColdkeyStake(c)))
	require.Equal(t, uint64(500), mustUint(t)(f.mgr.Balance(c)))
	owned, err := f.mgr.OwnedHotkeys(c)
	require.NoError(t, err)
	require.Equal(t, []types.HotKey{hotKey(1)}, owned)
	require.Empty(t, f.emitter.events)
}

func TestMigrateReassignsOnlyOwnedSubnets(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey, third := coldKey(1), coldKey(2), coldKey(3)
	require.NoError(t, f.mgr.AddSubnet(1, types.MechanismDynamic, oldKey))
	require.NoError(t, f.mgr.AddSubnet(2, types.MechanismDynamic, third))
	require.NoError(t, f.mgr.AddSubnet(3, types.MechanismFixed, oldKey))

	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))

	for netuid, want := range map[types.SubnetID]types.ColdKey{1: newKey, 2: third, 3: newKey} {
		owner, ok, err := f.mgr.SubnetOwner(netuid)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, owner, "subnet %d", netuid)
	}
}

func TestMigrateRelocatesSubnetAlpha(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey, hk := coldKey(1), coldKey(2), hotKey(1)
	require.NoError(t, f.mgr.AddSubnet(6, types.MechanismDynamic, coldKey(9)))
	require.NoError(t, f.mgr.SetAlpha(hk, oldKey, 6, 120))
	require.NoError(t, f.mgr.SetAlpha(hk, newKey, 6, 30))
	require.NoError(t, f.mgr.SetStakingHotkeys(oldKey, []types.HotKey{hk}))

	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))
	require.Equal(t, uint64(150), mustUint(t)(f.mgr.Alpha(hk, newKey, 6)))
	require.Zero(t, mustUint(t)(f.mgr.Alpha(hk, oldKey, 6)))
}

func TestMigrateMovesIntervalCounters(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey := coldKey(1), coldKey(2)
	hkA, hkB := hotKey(1), hotKey(2)
	f.own(t, oldKey, hkA, hkB)
	require.NoError(t, f.mgr.SetStakesThisInterval(hkA, oldKey, types.IntervalCounter{Count: 2, LastBlock: 40}))
	require.NoError(t, f.mgr.SetStakesThisInterval(hkB, oldKey, types.IntervalCounter{Count: 1, LastBlock: 30}))
	require.NoError(t, f.mgr.SetStakesThisInterval(hkB, newKey, types.IntervalCounter{Count: 3, LastBlock: 35}))

	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))

	counter, ok, err := f.mgr.StakesThisInterval(hkA, newKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.IntervalCounter{Count: 2, LastBlock: 40}, counter)

	counter, ok, err = f.mgr.StakesThisInterval(hkB, newKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.IntervalCounter{Count: 4, LastBlock: 35}, counter)

	for _, h := range []types.HotKey{hkA, hkB} {
		_, ok, err := f.mgr.StakesThisInterval(h, oldKey)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestMigrateSweepsBalance(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey := coldKey(1), coldKey(2)
	require.NoError(t, f.mgr.Credit(oldKey, 300))
	require.NoError(t, f.mgr.Credit(newKey, 20))

	require.NoError(t, f.engine.MigrateIdentity(oldKey, newKey, nil))
	require.Zero(t, mustUint(t)(f.mgr.Balance(oldKey)))
	require.Equal(t, uint64(320), mustUint(t)(f.mgr.Balance(newKey)))
}

func TestMigrateWeightScalesWithFootprint(t *testing.T) {
	small := newFixture(t)
	small.own(t, coldKey(1), hotKey(1))
	small.stake(t, hotKey(1), coldKey(1), 10)
	var smallWeight meter.Weight
	require.NoError(t, small.engine.MigrateIdentity(coldKey(1), coldKey(2), &smallWeight))

	large := newFixture(t)
	for i := byte(1); i <= 8; i++ {
		large.own(t, coldKey(1), hotKey(i))
		large.stake(t, hotKey(i), coldKey(1), 10)
	}
	var largeWeight meter.Weight
	require.NoError(t, large.engine.MigrateIdentity(coldKey(1), coldKey(2), &largeWeight))

	require.Greater(t, largeWeight.Reads, smallWeight.Reads)
	require.Greater(t, largeWeight.Writes, smallWeight.Writes)
}

func TestSwapMembership(t *testing.T) {
	f := newFixture(t)
	member, replacement, outsider := hotKey(1), hotKey(2), hotKey(3)
	require.NoError(t, f.mgr.AddSenateMember(member))

	var w meter.Weight
	require.NoError(t, f.engine.SwapMembership(member, replacement, &w))
	require.Equal(t, meter.ReadsWrites(2, 2), w)
	members, err := f.mgr.SenateMembers()
	require.NoError(t, err)
	require.Equal(t, []types.HotKey{replacement}, members)
	require.Len(t, f.emitter.events, 1)

	w = meter.Weight{}
	before := f.mgr.Trie().Hash()
	require.NoError(t, f.engine.SwapMembership(outsider, hotKey(4), &w))
	require.Equal(t, meter.ReadsWrites(1, 0), w)
	require.Equal(t, before, f.mgr.Trie().Hash())
	require.Len(t, f.emitter.events, 1)
}

func TestSwapMembershipPaused(t *testing.T) {
	f := newFixture(t)
	member := hotKey(1)
	require.NoError(t, f.mgr.AddSenateMember(member))
	f.engine.SetPauses(stubPauseView{modules: map[string]bool{common.ModuleKeySwap: true}})

	var w meter.Weight
	err := f.engine.SwapMembership(member, hotKey(2), &w)
	require.ErrorIs(t, err, common.ErrModulePaused)
	require.True(t, mustBool(t)(f.mgr.IsSenateMember(member)))
	require.Zero(t, w)
	require.Empty(t, f.emitter.events)
}

func TestSwapColdkeyChargesCostAndMigrates(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey, hk := coldKey(1), coldKey(2), hotKey(1)
	f.own(t, oldKey, hk)
	f.stake(t, hk, oldKey, 500)
	require.NoError(t, f.mgr.Credit(oldKey, 110))
	require.NoError(t, f.mgr.SetTotalIssuance(1_000))

	w, err := f.engine.SwapColdkey(oldKey, newKey)
	require.NoError(t, err)
	require.NotZero(t, w.Reads)

	require.Equal(t, uint64(100), mustUint(t)(f.mgr.Balance(newKey)))
	require.Zero(t, mustUint(t)(f.mgr.Balance(oldKey)))
	require.Equal(t, uint64(990), mustUint(t)(f.mgr.TotalIssuance()))
	require.Equal(t, uint64(500), mustUint(t)(f.mgr.Stake(hk, newKey)))
	require.Equal(t, uint64(77), mustUint(t)(f.mgr.LastTxBlock(newKey)))
}

func TestSwapColdkeyGuards(t *testing.T) {
	f := newFixture(t)
	oldKey, newKey := coldKey(1), coldKey(2)
	require.NoError(t, f.mgr.Credit(oldKey, 5))

	_, err := f.engine.SwapColdkey(oldKey, oldKey)
	require.ErrorIs(t, err, stakeerrors.ErrSameColdkey)

	_, err = f.engine.SwapColdkey(oldKey, newKey)
	require.ErrorIs(t, err, stakeerrors.ErrInsufficientBalance)

	busy := coldKey(3)
	f.own(t, busy, hotKey(9))
	_, err = f.engine.SwapColdkey(oldKey, busy)
	require.ErrorIs(t, err, stakeerrors.ErrColdkeyAlreadyAssociated)

	var asHotkey types.ColdKey
	copy(asHotkey[:], hotKey(9).Bytes())
	_, err = f.engine.SwapColdkey(oldKey, asHotkey)
	require.ErrorIs(t, err, stakeerrors.ErrNewColdkeyIsHotkey)

	f.engine.SetPauses(stubPauseView{modules: map[string]bool{common.ModuleKeySwap: true}})
	_, err = f.engine.SwapColdkey(oldKey, newKey)
	require.ErrorIs(t, err, common.ErrModulePaused)

	require.Equal(t, uint64(5), mustUint(t)(f.mgr.Balance(oldKey)))
}
