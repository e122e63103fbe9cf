package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "stakectl"
	app.Usage = "Apply staking ledger transactions against a local data directory"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to the TOML configuration file",
			Value: "./config.toml",
		},
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Override the configured data directory",
		},
	}
	app.Commands = []cli.Command{
		initCommand(),
		registerHotkeyCommand(),
		becomeDelegateCommand(),
		addStakeCommand(),
		removeStakeCommand(),
		swapColdkeyCommand(),
		swapSenateMemberCommand(),
		showCommand(),
	}
	return app
}
