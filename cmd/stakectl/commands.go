package main

import (
	"fmt"
	"math"
	"strings"

	cli "gopkg.in/urfave/cli.v1"

	"stakeledger/core/genesis"
	"stakeledger/core/types"
)

var (
	coldkeyFlag = cli.StringFlag{
		Name:  "coldkey",
		Usage: "Calling coldkey (0x-prefixed 32-byte hex)",
	}
	hotkeyFlag = cli.StringFlag{
		Name:  "hotkey",
		Usage: "Target hotkey (0x-prefixed 32-byte hex)",
	}
	netuidFlag = cli.UintFlag{
		Name:  "netuid",
		Usage: "Subnet identifier, 0 for the root subnet",
	}
	amountFlag = cli.Uint64Flag{
		Name:  "amount",
		Usage: "Amount in base units",
	}
)

func initCommand() cli.Command {
	return cli.Command{
		Name:  "init",
		Usage: "Apply a genesis file to an empty data directory",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "genesis",
				Usage: "Genesis YAML file (defaults to GenesisFile from the config)",
			},
		},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			if l.hasHead {
				return fmt.Errorf("data directory %s already initialised at height %d", l.cfg.DataDir, l.head.Height)
			}
			path := strings.TrimSpace(c.String("genesis"))
			if path == "" {
				path = strings.TrimSpace(l.cfg.GenesisFile)
			}
			if path == "" {
				return fmt.Errorf("no genesis file: pass --genesis or set GenesisFile")
			}
			spec, err := genesis.LoadGenesisSpec(path)
			if err != nil {
				return err
			}
			if err := genesis.Apply(spec, l.proc.State()); err != nil {
				return fmt.Errorf("apply genesis: %w", err)
			}
			root, err := l.proc.Commit(0)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "genesis committed root=%s\n", root.Hex())
			return nil
		}),
	}
}

func registerHotkeyCommand() cli.Command {
	return cli.Command{
		Name:  "register-hotkey",
		Usage: "Bind a hotkey to the calling coldkey",
		Flags: []cli.Flag{coldkeyFlag, hotkeyFlag},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			tx, err := baseTransaction(c, types.TxTypeRegisterHotkey)
			if err != nil {
				return err
			}
			return l.apply(c, tx)
		}),
	}
}

func becomeDelegateCommand() cli.Command {
	return cli.Command{
		Name:  "become-delegate",
		Usage: "Open an owned hotkey to nominators",
		Flags: []cli.Flag{
			coldkeyFlag,
			hotkeyFlag,
			cli.UintFlag{Name: "take", Usage: "Delegate take out of 65535"},
		},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			tx, err := baseTransaction(c, types.TxTypeBecomeDelegate)
			if err != nil {
				return err
			}
			take := c.Uint("take")
			if take > math.MaxUint16 {
				return fmt.Errorf("take %d exceeds %d", take, math.MaxUint16)
			}
			tx.Take = uint16(take)
			return l.apply(c, tx)
		}),
	}
}

func addStakeCommand() cli.Command {
	return cli.Command{
		Name:  "add-stake",
		Usage: "Move free balance into stake on a hotkey",
		Flags: []cli.Flag{coldkeyFlag, hotkeyFlag, netuidFlag, amountFlag},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			tx, err := stakeTransaction(c, types.TxTypeAddStake)
			if err != nil {
				return err
			}
			return l.apply(c, tx)
		}),
	}
}

func removeStakeCommand() cli.Command {
	return cli.Command{
		Name:  "remove-stake",
		Usage: "Withdraw stake from a hotkey back to free balance",
		Flags: []cli.Flag{coldkeyFlag, hotkeyFlag, netuidFlag, amountFlag},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			tx, err := stakeTransaction(c, types.TxTypeRemoveStake)
			if err != nil {
				return err
			}
			return l.apply(c, tx)
		}),
	}
}

func swapColdkeyCommand() cli.Command {
	return cli.Command{
		Name:  "swap-coldkey",
		Usage: "Migrate every association of the calling coldkey to a new coldkey",
		Flags: []cli.Flag{
			coldkeyFlag,
			cli.StringFlag{Name: "new-coldkey", Usage: "Destination coldkey"},
		},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			caller, err := types.ParseColdKey(c.String("coldkey"))
			if err != nil {
				return fmt.Errorf("--coldkey: %w", err)
			}
			newKey, err := types.ParseColdKey(c.String("new-coldkey"))
			if err != nil {
				return fmt.Errorf("--new-coldkey: %w", err)
			}
			return l.apply(c, &types.Transaction{Type: types.TxTypeSwapColdkey, Caller: caller, NewColdkey: newKey})
		}),
	}
}

func swapSenateMemberCommand() cli.Command {
	return cli.Command{
		Name:  "swap-senate-member",
		Usage: "Hand a senate seat from one owned hotkey to another",
		Flags: []cli.Flag{
			coldkeyFlag,
			hotkeyFlag,
			cli.StringFlag{Name: "new-hotkey", Usage: "Hotkey receiving the seat"},
		},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			tx, err := baseTransaction(c, types.TxTypeSwapSenateMember)
			if err != nil {
				return err
			}
			if tx.NewHotkey, err = types.ParseHotKey(c.String("new-hotkey")); err != nil {
				return fmt.Errorf("--new-hotkey: %w", err)
			}
			return l.apply(c, tx)
		}),
	}
}

func showCommand() cli.Command {
	return cli.Command{
		Name:  "show",
		Usage: "Print the committed head and, optionally, account and stake details",
		Flags: []cli.Flag{coldkeyFlag, hotkeyFlag, netuidFlag},
		Action: withLedger(func(c *cli.Context, l *ledger) error {
			return show(c, l)
		}),
	}
}

func show(c *cli.Context, l *ledger) error {
	w := c.App.Writer
	st := l.proc.State()
	if !l.hasHead {
		fmt.Fprintln(w, "ledger not initialised")
		return nil
	}
	issuance, err := st.TotalIssuance()
	if err != nil {
		return err
	}
	total, err := st.TotalStake()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "height=%d root=%s\n", l.head.Height, l.head.Root.Hex())
	fmt.Fprintf(w, "total_issuance=%d total_stake=%d\n", issuance, total)

	if c.String("coldkey") == "" {
		return nil
	}
	cold, err := types.ParseColdKey(c.String("coldkey"))
	if err != nil {
		return fmt.Errorf("--coldkey: %w", err)
	}
	balance, err := st.Balance(cold)
	if err != nil {
		return err
	}
	owned, err := st.OwnedHotkeys(cold)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "coldkey=%s balance=%d owned_hotkeys=%d\n", cold, balance, len(owned))
	for _, h := range owned {
		fmt.Fprintf(w, "  hotkey %s\n", h)
	}

	if c.String("hotkey") == "" {
		return nil
	}
	hot, err := types.ParseHotKey(c.String("hotkey"))
	if err != nil {
		return fmt.Errorf("--hotkey: %w", err)
	}
	netuid, err := subnetID(c)
	if err != nil {
		return err
	}
	stake, err := st.Stake(hot, cold)
	if err != nil {
		return err
	}
	alpha, err := st.Alpha(hot, cold, netuid)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "hotkey=%s stake=%d alpha[%d]=%d\n", hot, stake, netuid, alpha)
	return nil
}

func baseTransaction(c *cli.Context, txType types.TxType) (*types.Transaction, error) {
	caller, err := types.ParseColdKey(c.String("coldkey"))
	if err != nil {
		return nil, fmt.Errorf("--coldkey: %w", err)
	}
	hotkey, err := types.ParseHotKey(c.String("hotkey"))
	if err != nil {
		return nil, fmt.Errorf("--hotkey: %w", err)
	}
	return &types.Transaction{Type: txType, Caller: caller, Hotkey: hotkey}, nil
}

func stakeTransaction(c *cli.Context, txType types.TxType) (*types.Transaction, error) {
	tx, err := baseTransaction(c, txType)
	if err != nil {
		return nil, err
	}
	if tx.Subnet, err = subnetID(c); err != nil {
		return nil, err
	}
	tx.Amount = c.Uint64("amount")
	return tx, nil
}

func subnetID(c *cli.Context) (types.SubnetID, error) {
	netuid := c.Uint("netuid")
	if netuid > math.MaxUint16 {
		return 0, fmt.Errorf("netuid %d exceeds %d", netuid, math.MaxUint16)
	}
	return types.SubnetID(netuid), nil
}
