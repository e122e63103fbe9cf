package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	stakeerrors "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/meter"
	"stakeledger/core/state"
	"stakeledger/core/types"
	nativecommon "stakeledger/native/common"
	"stakeledger/native/keyswap"
	"stakeledger/native/staking"
	"stakeledger/observability/metrics"
	"stakeledger/storage"
	"stakeledger/storage/trie"
)

var headKey = []byte("stakeledger/head")

// Head identifies the most recently committed ledger root.
type Head struct {
	Root   common.Hash
	Height uint64
}

// LoadHead reads the committed head from db. ok is false on a fresh database.
func LoadHead(db storage.Database) (Head, bool, error) {
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Head{}, false, nil
	}
	if err != nil {
		return Head{}, false, err
	}
	var head Head
	if err := rlp.DecodeBytes(raw, &head); err != nil {
		return Head{}, false, fmt.Errorf("decode head: %w", err)
	}
	return head, true, nil
}

// StateProcessor applies ledger transactions. Each transaction is
// all-or-nothing: on failure the trie is restored to its pre-transaction
// contents and buffered events are dropped.
type StateProcessor struct {
	Trie    *trie.Trie
	Staking *staking.Engine
	KeySwap *keyswap.Engine

	state         *state.Manager
	buffer        *events.Buffer
	emitter       events.Emitter
	committedRoot common.Hash
	height        uint64
	tracer        trace.Tracer
	logger        *slog.Logger
	metrics       *metrics.StakingMetrics
}

// NewStateProcessor wires the staking and key swap engines to the trie.
func NewStateProcessor(tr *trie.Trie) *StateProcessor {
	sp := &StateProcessor{
		Trie:          tr,
		Staking:       staking.NewEngine(),
		KeySwap:       keyswap.NewEngine(),
		state:         state.NewManager(tr),
		buffer:        &events.Buffer{},
		emitter:       events.NoopEmitter{},
		committedRoot: tr.Root(),
		tracer:        otel.Tracer("stakeledger/core"),
		logger:        slog.Default(),
		metrics:       metrics.Staking(),
	}
	blockFn := func() uint64 { return sp.height }
	sp.Staking.SetState(sp.state)
	sp.Staking.SetEmitter(sp.buffer)
	sp.Staking.SetBlockFunc(blockFn)
	sp.KeySwap.SetState(sp.state)
	sp.KeySwap.SetEmitter(sp.buffer)
	sp.KeySwap.SetBlockFunc(blockFn)
	return sp
}

// State exposes the ledger state manager.
func (sp *StateProcessor) State() *state.Manager { return sp.state }

// SetEmitter configures where events of successful transactions are sent.
func (sp *StateProcessor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	sp.emitter = emitter
}

// SetLogger configures the logger shared with both engines.
func (sp *StateProcessor) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	sp.logger = logger
	sp.Staking.SetLogger(logger)
	sp.KeySwap.SetLogger(logger)
}

// SetTracer overrides the tracer used for transaction spans.
func (sp *StateProcessor) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = otel.Tracer("stakeledger/core")
	}
	sp.tracer = tracer
}

// SetPauses forwards module pause toggles to both engines.
func (sp *StateProcessor) SetPauses(p nativecommon.PauseView) {
	sp.Staking.SetPauses(p)
	sp.KeySwap.SetPauses(p)
}

// SetBlockHeight sets the block height observed by subsequent transactions.
func (sp *StateProcessor) SetBlockHeight(height uint64) { sp.height = height }

// BlockHeight returns the block height observed by transactions.
func (sp *StateProcessor) BlockHeight() uint64 { return sp.height }

// CurrentRoot returns the last committed state root.
func (sp *StateProcessor) CurrentRoot() common.Hash {
	return sp.committedRoot
}

// PendingRoot returns the root of the trie including in-memory mutations.
func (sp *StateProcessor) PendingRoot() common.Hash {
	return sp.Trie.Hash()
}

// ResetToRoot discards any in-memory changes and reloads the trie at the
// provided root hash.
func (sp *StateProcessor) ResetToRoot(root common.Hash) error {
	if err := sp.Trie.Reset(root); err != nil {
		return err
	}
	sp.committedRoot = root
	return nil
}

// Commit persists the current trie contents, records the head in the backing
// store and returns the resulting state root.
func (sp *StateProcessor) Commit(height uint64) (common.Hash, error) {
	newRoot, err := sp.Trie.Commit(sp.committedRoot, height)
	if err != nil {
		return common.Hash{}, err
	}
	encoded, err := rlp.EncodeToBytes(Head{Root: newRoot, Height: height})
	if err != nil {
		return common.Hash{}, err
	}
	if err := sp.Trie.Store().Put(headKey, encoded); err != nil {
		return common.Hash{}, fmt.Errorf("persist head: %w", err)
	}
	sp.committedRoot = newRoot
	sp.height = height
	sp.metrics.SetCommittedHeight(height)
	return newRoot, nil
}

// ApplyTransaction executes tx against the ledger and returns its receipt.
func (sp *StateProcessor) ApplyTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	_, span := sp.tracer.Start(ctx, "ledger.apply_transaction",
		trace.WithAttributes(
			attribute.String("tx.type", string(tx.Type)),
			attribute.String("tx.caller", tx.Caller.String()),
			attribute.Int64("block.height", int64(sp.height)),
		))
	defer span.End()

	snapshot, err := sp.Trie.Copy()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("snapshot state: %w", err)
	}
	sp.buffer.Reset()

	weight, err := sp.dispatch(tx)
	sp.metrics.ObserveTransaction(string(tx.Type), err)
	if err != nil {
		sp.Trie.Restore(snapshot)
		sp.buffer.Reset()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		sp.logger.Debug("transaction rejected",
			slog.String("type", string(tx.Type)),
			slog.String("caller", tx.Caller.String()),
			slog.String("reason", metrics.Reason(err)),
			slog.Any("error", err))
		return nil, err
	}

	pending := sp.buffer.Pending()
	receipt := &types.Receipt{
		ID:     uuid.New(),
		Type:   tx.Type,
		Block:  sp.height,
		Weight: weight,
		Events: make([]types.Event, 0, len(pending)),
	}
	for _, evt := range pending {
		if payload := events.ToTypes(evt); payload != nil {
			receipt.Events = append(receipt.Events, *payload)
		}
	}
	sp.buffer.Flush(sp.emitter)

	span.SetAttributes(
		attribute.String("receipt.id", receipt.ID.String()),
		attribute.Int64("weight.reads", int64(weight.Reads)),
		attribute.Int64("weight.writes", int64(weight.Writes)),
	)
	span.SetStatus(codes.Ok, "applied")
	return receipt, nil
}

func (sp *StateProcessor) dispatch(tx *types.Transaction) (meter.Weight, error) {
	switch tx.Type {
	case types.TxTypeRegisterHotkey:
		return staking.RegisterHotkeyWeight, sp.Staking.RegisterHotkey(tx.Caller, tx.Hotkey)
	case types.TxTypeBecomeDelegate:
		return staking.BecomeDelegateWeight, sp.Staking.BecomeDelegate(tx.Caller, tx.Hotkey, tx.Take)
	case types.TxTypeAddStake:
		return staking.AddStakeWeight, sp.Staking.AddStake(tx.Caller, tx.Hotkey, tx.Subnet, tx.Amount)
	case types.TxTypeRemoveStake:
		return staking.WithdrawWeight, sp.Staking.Withdraw(tx.Caller, tx.Hotkey, tx.Subnet, tx.Amount)
	case types.TxTypeSwapColdkey:
		return sp.KeySwap.SwapColdkey(tx.Caller, tx.NewColdkey)
	case types.TxTypeSwapSenateMember:
		return sp.swapSenateMember(tx)
	default:
		return meter.Weight{}, fmt.Errorf("unsupported transaction type %q", tx.Type)
	}
}

// swapSenateMember lets the owner of a seated hotkey hand the seat to another
// hotkey it owns.
func (sp *StateProcessor) swapSenateMember(tx *types.Transaction) (meter.Weight, error) {
	var w meter.Weight
	for _, h := range []types.HotKey{tx.Hotkey, tx.NewHotkey} {
		owner, ok, err := sp.state.Owner(h)
		if err != nil {
			return w, err
		}
		w.AddReads(1)
		if !ok || owner != tx.Caller {
			return w, fmt.Errorf("hotkey %s: %w", h, stakeerrors.ErrNotHotkeyOwner)
		}
	}
	if err := sp.KeySwap.SwapMembership(tx.Hotkey, tx.NewHotkey, &w); err != nil {
		return w, err
	}
	return w, nil
}
