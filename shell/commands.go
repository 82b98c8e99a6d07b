package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"synacorvm/disasm"
	"synacorvm/sweep"
)

// ErrUsage is wrapped by every command's argument-parsing failure; dispatch
// treats it as a recovered error: print a usage line and keep the REPL
// running rather than aborting.
var ErrUsage = errors.New("usage")

// dispatch parses one raw input line and runs the matching command. quit
// reports whether the REPL should stop; advances reports whether step_no
// should move forward — only feeding the VM input (the default row, plus
// `solve`, which also enqueues input) advances it; the inspection commands
// replay the current step in place. A non-nil error is always treated as
// recoverable. The only VM faults dispatch returns are those `search` hits
// while running its private clones; faults of the working state surface
// from advanceAndSnapshot instead.
func (r *REPL) dispatch(raw string) (quit bool, advances bool, err error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return false, true, r.enqueueLine(raw)
	}

	switch fields[0] {
	case "load":
		return false, false, r.cmdLoad(fields[1:])
	case "diff":
		return false, false, r.cmdDiff(fields[1:])
	case "get":
		return false, false, r.cmdGet(fields[1:])
	case "set":
		return false, false, r.cmdSet(fields[1:])
	case "input":
		return false, false, r.cmdInput()
	case "solve":
		return false, true, r.cmdSolve()
	case "search":
		return false, false, r.cmdSearch()
	case "disassemble", "dissassemble":
		return false, false, r.cmdDisassemble()
	case "dump":
		return false, false, r.cmdDump()
	case "quit":
		return true, false, nil
	default:
		return false, true, r.enqueueLine(raw)
	}
}

// enqueueLine feeds raw (CR stripped, trailing newline preserved) to the VM
// as adventure input — the default behavior for any line that is not a
// recognized debugger command.
func (r *REPL) enqueueLine(raw string) error {
	r.state.EnqueueInput(stripCR(raw) + "\n")
	return nil
}

func (r *REPL) cmdLoad(args []string) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "load K")
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(ErrUsage, "load K: K must be an integer step index")
	}
	loaded, err := r.store.Load(k)
	if err != nil {
		return err
	}
	r.state = loaded
	// Don't replay the loaded snapshot's history to the terminal; only
	// output emitted after this point should mirror.
	r.printedOutput = len(loaded.Output)
	return nil
}

func (r *REPL) cmdDiff(args []string) error {
	if len(args) != 2 {
		return errors.Wrap(ErrUsage, "diff A B")
	}
	a, err1 := strconv.Atoi(args[0])
	b, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return errors.Wrap(ErrUsage, "diff A B: A and B must be integer step indices")
	}
	changed, err := r.store.Diff(a, b)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"address"})
	for _, addr := range changed {
		table.Append([]string{fmt.Sprintf("%d", addr)})
	}
	table.Render()
	return nil
}

func (r *REPL) cmdGet(args []string) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "get A")
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(ErrUsage, "get A: A must be an integer address")
	}
	v, ok := r.state.Get(uint16(a))
	if !ok {
		fmt.Fprintf(r.out, "@%d: unreadable\n", a)
		return nil
	}
	fmt.Fprintf(r.out, "@%d = %d\n", a, v)
	return nil
}

func (r *REPL) cmdSet(args []string) error {
	if len(args) != 2 {
		return errors.Wrap(ErrUsage, "set A V")
	}
	a, err1 := strconv.Atoi(args[0])
	v, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return errors.Wrap(ErrUsage, "set A V: A and V must be integers")
	}
	r.state.Set(uint16(a), uint16(v))
	return nil
}

func (r *REPL) cmdInput() error {
	fmt.Fprintln(r.out, strings.Join(r.transcript, "\n"))
	return nil
}

func (r *REPL) cmdSolve() error {
	for _, line := range r.cfg.Solve.Script {
		r.state.EnqueueInput(line + "\n")
	}
	return nil
}

func (r *REPL) cmdSearch() error {
	if len(r.cfg.Sweep.PatchAddrs) != len(r.cfg.Sweep.PatchValues) {
		return errors.Wrap(ErrUsage, "config: sweep.patch_addresses and sweep.patch_values must be the same length")
	}

	patches := make([]sweep.Patch, len(r.cfg.Sweep.PatchAddrs))
	for i, addr := range r.cfg.Sweep.PatchAddrs {
		patches[i] = sweep.Patch{Addr: uint16(addr), Value: uint16(r.cfg.Sweep.PatchValues[i])}
	}

	base, err := sweep.Prepare(r.state, patches, r.cfg.Sweep.TargetRegister, r.cancel)
	if err != nil {
		return err
	}

	results, err := sweep.Run(context.Background(), base, r.cfg.Sweep.TargetRegister, r.cfg.Sweep.Workers, r.cancel)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"candidate", "output"})
	for _, res := range results {
		table.Append([]string{fmt.Sprintf("%d", res.Candidate), res.Output})
	}
	table.Render()
	return nil
}

func (r *REPL) cmdDisassemble() error {
	fmt.Fprintln(r.out, disasm.Format(r.state))
	return nil
}

func (r *REPL) cmdDump() error {
	fmt.Fprintf(r.out, "IP=%d running=%v\nstack: %s\n", r.state.IP, r.state.Running, spew.Sdump(r.state.Stack))
	return nil
}
