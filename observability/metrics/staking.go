package metrics

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/types"
	"stakeledger/native/common"
)

type StakingMetrics struct {
	withdrawals     *prometheus.CounterVec
	withdrawnTao    *prometheus.CounterVec
	stakeAdded      *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	coldkeySwaps    prometheus.Counter
	senateSwaps     *prometheus.CounterVec
	migrationReads  prometheus.Counter
	migrationWrites prometheus.Counter
	migratedHotkeys prometheus.Histogram
	processedTxs    *prometheus.CounterVec
	committedHeight prometheus.Gauge
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking metrics, registering them with the
// default prometheus registry on first use.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakeledger_withdrawals_total",
				Help: "Count of successful stake withdrawals by subnet.",
			}, []string{"netuid"}),
			withdrawnTao: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakeledger_withdrawn_tao_total",
				Help: "Base-currency amount credited by withdrawals per subnet.",
			}, []string{"netuid"}),
			stakeAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakeledger_stake_added_tao_total",
				Help: "Base-currency amount staked per subnet.",
			}, []string{"netuid"}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakeledger_rejected_operations_total",
				Help: "Rejected ledger operations by operation and reason.",
			}, []string{"operation", "reason"}),
			coldkeySwaps: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stakeledger_coldkey_swaps_total",
				Help: "Number of completed coldkey migrations.",
			}),
			senateSwaps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakeledger_senate_swaps_total",
				Help: "Governance membership swap attempts by outcome.",
			}, []string{"outcome"}),
			migrationReads: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stakeledger_migration_reads_total",
				Help: "Logical reads metered by coldkey migrations.",
			}),
			migrationWrites: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stakeledger_migration_writes_total",
				Help: "Logical writes metered by coldkey migrations.",
			}),
			migratedHotkeys: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "stakeledger_migration_hotkeys",
				Help:    "Distinct hotkeys relocated per coldkey migration.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			}),
			processedTxs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakeledger_transactions_total",
				Help: "Transactions applied by the state processor by type and result.",
			}, []string{"type", "result"}),
			committedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stakeledger_committed_height",
				Help: "Height of the most recently committed ledger root.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.withdrawals,
			stakingRegistry.withdrawnTao,
			stakingRegistry.stakeAdded,
			stakingRegistry.rejected,
			stakingRegistry.coldkeySwaps,
			stakingRegistry.senateSwaps,
			stakingRegistry.migrationReads,
			stakingRegistry.migrationWrites,
			stakingRegistry.migratedHotkeys,
			stakingRegistry.processedTxs,
			stakingRegistry.committedHeight,
		)
	})
	return stakingRegistry
}

func (m *StakingMetrics) ObserveWithdrawal(netuid types.SubnetID, tao uint64) {
	if m == nil {
		return
	}
	label := strconv.FormatUint(uint64(netuid), 10)
	m.withdrawals.WithLabelValues(label).Inc()
	m.withdrawnTao.WithLabelValues(label).Add(float64(tao))
}

func (m *StakingMetrics) ObserveStakeAdded(netuid types.SubnetID, tao uint64) {
	if m == nil {
		return
	}
	m.stakeAdded.WithLabelValues(strconv.FormatUint(uint64(netuid), 10)).Add(float64(tao))
}

func (m *StakingMetrics) ObserveRejected(operation string, err error) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.rejected.WithLabelValues(operation, Reason(err)).Inc()
}

func (m *StakingMetrics) ObserveColdkeySwap(reads, writes uint64, hotkeys int) {
	if m == nil {
		return
	}
	m.coldkeySwaps.Inc()
	m.migrationReads.Add(float64(reads))
	m.migrationWrites.Add(float64(writes))
	m.migratedHotkeys.Observe(float64(hotkeys))
}

func (m *StakingMetrics) ObserveSenateSwap(swapped bool) {
	if m == nil {
		return
	}
	outcome := "not_member"
	if swapped {
		outcome = "swapped"
	}
	m.senateSwaps.WithLabelValues(outcome).Inc()
}

func (m *StakingMetrics) ObserveTransaction(txType string, err error) {
	if m == nil {
		return
	}
	if txType == "" {
		txType = "unknown"
	}
	result := "ok"
	if err != nil {
		result = Reason(err)
	}
	m.processedTxs.WithLabelValues(txType, result).Inc()
}

func (m *StakingMetrics) SetCommittedHeight(height uint64) {
	if m == nil {
		return
	}
	m.committedHeight.Set(float64(height))
}

var reasons = []struct {
	err   error
	label string
}{
	{common.ErrModulePaused, "paused"},
	{stakeerrors.ErrUnknownHotkey, "unknown_hotkey"},
	{stakeerrors.ErrUnauthorized, "unauthorized"},
	{stakeerrors.ErrZeroAmount, "zero_amount"},
	{stakeerrors.ErrInsufficientStake, "insufficient_stake"},
	{stakeerrors.ErrRateLimited, "rate_limited"},
	{stakeerrors.ErrInsufficientBalance, "insufficient_balance"},
	{stakeerrors.ErrHotkeyAlreadyRegistered, "hotkey_registered"},
	{stakeerrors.ErrAlreadyDelegate, "already_delegate"},
	{stakeerrors.ErrUnknownSubnet, "unknown_subnet"},
	{stakeerrors.ErrSameColdkey, "same_coldkey"},
	{stakeerrors.ErrColdkeyAlreadyAssociated, "coldkey_associated"},
	{stakeerrors.ErrNewColdkeyIsHotkey, "coldkey_is_hotkey"},
	{stakeerrors.ErrNotHotkeyOwner, "not_hotkey_owner"},
}

// Reason maps a ledger error onto a bounded metric label.
func Reason(err error) string {
	if err == nil {
		return "none"
	}
	for _, candidate := range reasons {
		if errors.Is(err, candidate.err) {
			return candidate.label
		}
	}
	return "internal"
}
