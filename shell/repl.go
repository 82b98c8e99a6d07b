// Package shell implements the line-oriented debugger REPL: a command
// parser that composes the VM, the snapshot store, the disassembler, and
// the register sweep.
package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"synacorvm/config"
	"synacorvm/snapshot"
	"synacorvm/vm"
)

// REPL owns the one mutable working VM, the snapshot archive, and the
// running step counter. It is driven from a single goroutine.
type REPL struct {
	state      *vm.State
	store      *snapshot.Store
	stepNo     int
	transcript []string
	cfg        config.Config
	cancel     *vm.CancelFlag

	out io.Writer
	in  *liner.State

	stepLabel     *color.Color
	lastFirstSeen int
	printedOutput int
}

// New constructs a REPL around an already-loaded initial state.
func New(state *vm.State, cfg config.Config, cancel *vm.CancelFlag, out io.Writer) *REPL {
	return &REPL{
		state:     state,
		store:     snapshot.New(),
		cfg:       cfg,
		cancel:    cancel,
		out:       out,
		stepLabel: color.New(color.FgGreen, color.Bold),
	}
}

// Run drives the REPL to completion: it reads lines until `quit` or EOF,
// running the VM to suspension and snapshotting after every command.
func (r *REPL) Run() error {
	r.in = liner.NewLiner()
	defer r.in.Close()
	r.in.SetCtrlCAborts(true)

	if err := r.advanceAndSnapshot(); err != nil {
		return err
	}
	r.printPrompt()

	for {
		line, err := r.in.Prompt("")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		r.in.AppendHistory(line)
		r.transcript = append(r.transcript, line)

		quit, advances, err := r.dispatch(line)
		if err != nil {
			fmt.Fprintln(r.out, "error:", err)
			r.printPrompt()
			continue
		}
		if quit {
			return nil
		}

		if advances {
			r.stepNo++
		}
		if err := r.advanceAndSnapshot(); err != nil {
			return err
		}
		r.printPrompt()
	}
}

// advanceAndSnapshot re-arms the cancellation flag, re-enters
// run-to-suspension, mirrors any freshly emitted output to the terminal when
// live-output is set, then records the resulting state in the snapshot
// store. The re-arm matters: a Ctrl-C during the previous command clears the
// flag to stop that command's run cleanly, and nothing else re-arms it, so
// without this the VM would never execute another instruction for the rest
// of the process.
func (r *REPL) advanceAndSnapshot() error {
	r.cancel.Reset()
	if err := r.state.RunToSuspension(r.cancel); err != nil {
		return err
	}
	r.mirrorOutput()
	firstSeen, _ := r.store.Upsert(r.state, r.stepNo)
	r.lastFirstSeen = firstSeen
	return nil
}

// mirrorOutput writes whatever characters the VM has emitted since the last
// mirror to the terminal, when the current state's live-output flag is set.
// It never drains the output buffer: the buffer's full accumulated contents
// remain part of the snapshotted state, only the REPL's own "how much have
// I already shown" position advances.
func (r *REPL) mirrorOutput() {
	if r.printedOutput > len(r.state.Output) {
		// The working state was swapped out from under us (e.g. `load`
		// jumped to an earlier step); don't replay history, just resync.
		r.printedOutput = len(r.state.Output)
	}
	if r.state.LiveOutput && r.printedOutput < len(r.state.Output) {
		fmt.Fprint(r.out, string(r.state.Output[r.printedOutput:]))
	}
	r.printedOutput = len(r.state.Output)
}

// printPrompt renders the "STEP n (first seen m): " prompt.
func (r *REPL) printPrompt() {
	r.stepLabel.Fprintf(r.out, "STEP %d (first seen %d): ", r.stepNo, r.lastFirstSeen)
}

// stripCR removes every carriage return while preserving any newline,
// since the guest program expects line-terminated input.
func stripCR(s string) string {
	return strings.ReplaceAll(s, "\r", "")
}
