package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	cli "gopkg.in/urfave/cli.v1"

	"stakeledger/config"
	"stakeledger/core"
	"stakeledger/core/events"
	"stakeledger/core/types"
	"stakeledger/observability/logging"
	telemetry "stakeledger/observability/otel"
	"stakeledger/storage"
	"stakeledger/storage/trie"
)

// ledger bundles the handles a single stakectl invocation needs.
type ledger struct {
	cfg     *config.Config
	db      *storage.LevelDB
	journal *events.Journal
	proc    *core.StateProcessor
	head    core.Head
	hasHead bool
	logger  *slog.Logger

	shutdownTelemetry func(context.Context) error
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dir := strings.TrimSpace(c.GlobalString("datadir")); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func openLedger(c *cli.Context) (*ledger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup("stakectl", cfg.Environment)
	shutdown, err := initTelemetry(cfg)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	head, ok, err := core.LoadHead(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	var root []byte
	if ok {
		root = head.Root.Bytes()
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open state at %s: %w", head.Root, err)
	}

	proc := core.NewStateProcessor(tr)
	proc.SetLogger(logger)
	proc.SetPauses(cfg.Pauses)
	proc.Staking.SetPolicy(cfg.Staking.StakingPolicy())
	proc.KeySwap.SetPolicy(cfg.Staking.KeySwapPolicy())
	proc.SetBlockHeight(head.Height)

	l := &ledger{cfg: cfg, db: db, proc: proc, head: head, hasHead: ok, logger: logger, shutdownTelemetry: shutdown}
	if path := cfg.JournalPath(); path != "" {
		journal, err := events.OpenJournal(path, nil)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open event journal: %w", err)
		}
		l.journal = journal
		proc.SetEmitter(journal)
	}
	return l, nil
}

func (l *ledger) Close() {
	if l.journal != nil {
		if err := l.journal.Close(); err != nil {
			l.logger.Warn("close event journal", slog.Any("error", err))
		}
	}
	l.db.Close()
	if err := l.shutdownTelemetry(context.Background()); err != nil {
		l.logger.Warn("flush telemetry", slog.Any("error", err))
	}
}

// initTelemetry reads the standard OTLP environment variables.
func initTelemetry(cfg *config.Config) (func(context.Context) error, error) {
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	return telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "stakectl",
		Environment: cfg.Environment,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
	})
}

// apply executes tx at the next height and commits the result.
func (l *ledger) apply(c *cli.Context, tx *types.Transaction) error {
	if !l.hasHead {
		return fmt.Errorf("ledger not initialised, run %s init first", c.App.Name)
	}
	height := l.head.Height + 1
	l.proc.SetBlockHeight(height)
	receipt, err := l.proc.ApplyTransaction(context.Background(), tx)
	if err != nil {
		return err
	}
	if l.journal != nil {
		if err := l.journal.Err(); err != nil {
			return fmt.Errorf("record events: %w", err)
		}
	}
	root, err := l.proc.Commit(height)
	if err != nil {
		return fmt.Errorf("commit height %d: %w", height, err)
	}
	fmt.Fprintf(c.App.Writer, "receipt %s type=%s block=%d reads=%d writes=%d root=%s\n",
		receipt.ID, receipt.Type, receipt.Block, receipt.Weight.Reads, receipt.Weight.Writes, root.Hex())
	for _, evt := range receipt.Events {
		fmt.Fprintf(c.App.Writer, "  event %s %v\n", evt.Type, evt.Attributes)
	}
	return nil
}

// withLedger opens the ledger for the duration of fn.
func withLedger(fn func(*cli.Context, *ledger) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()
		return fn(c, l)
	}
}
