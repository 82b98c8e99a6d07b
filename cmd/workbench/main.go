package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gopkg.in/urfave/cli.v1"

	"synacorvm/config"
	"synacorvm/shell"
	"synacorvm/sweep"
	"synacorvm/vm"
)

var (
	imageFlag = cli.StringFlag{
		Name:  "image",
		Usage: "path to the little-endian word-encoded program image (default: the config's image_path, doc/challenge.bin unless overridden)",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to an optional TOML config overriding sweep/solve defaults",
		Value: "workbench.toml",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "workbench"
	app.Usage = "interactive execution environment and debugger for the 16-bit word VM"
	app.Flags = []cli.Flag{imageFlag, configFlag}
	app.Action = run
	app.Commands = []cli.Command{
		{
			Name:  "ackermann",
			Usage: "diagnostic: search every R7 candidate for the one satisfying the verification routine's Ackermann-like recurrence",
			Action: func(c *cli.Context) error {
				found, err := sweep.AckermannSearch(context.Background())
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				for _, cand := range found {
					fmt.Fprintln(os.Stdout, cand)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "workbench:", err)
		os.Exit(2)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("loading config: %v", err), 2)
	}

	imagePath := c.String("image")
	if imagePath == "" {
		imagePath = cfg.ImagePath
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("loading image %q: %v", imagePath, err), 2)
	}
	words, err := vm.DecodeWords(data)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("decoding image %q: %v", imagePath, err), 2)
	}

	state := vm.New(words)
	cancel := vm.NewCancelFlag()
	installInterruptHandler(cancel)

	repl := shell.New(state, cfg, cancel, os.Stdout)
	if err := repl.Run(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

// installInterruptHandler wires the two-click interrupt protocol: the first
// Ctrl-C clears the cancellation flag (causing run-to-suspension to return
// at the next instruction boundary); a second Ctrl-C while the flag is
// already clear terminates the process.
func installInterruptHandler(cancel *vm.CancelFlag) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		for range sigs {
			if !cancel.ShouldContinue() {
				os.Exit(1)
			}
			cancel.Cancel()
		}
	}()
}
