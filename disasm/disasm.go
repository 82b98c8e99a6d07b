// Package disasm implements the one-pass linear disassembler: no
// control-flow analysis, resynchronising on data purely by
// byte-synchronous progression.
package disasm

import (
	"fmt"
	"strings"

	"synacorvm/vm"
)

// Line is one emitted disassembly record: either a decoded instruction or a
// raw word that did not decode to a known opcode.
type Line struct {
	Addr  vm.Address
	Op    vm.Opcode // valid only when Known
	Args  []vm.Word
	Raw   vm.Word
	Known bool
}

// String renders a line as "@A OP arg1 ... argN" for known opcodes, or
// "@A <raw word>" otherwise.
func (l Line) String() string {
	if !l.Known {
		return fmt.Sprintf("@%d %d", l.Addr, l.Raw)
	}
	parts := make([]string, 0, len(l.Args)+2)
	parts = append(parts, fmt.Sprintf("@%d", l.Addr), l.Op.String())
	for _, a := range l.Args {
		parts = append(parts, fmt.Sprintf("%d", a))
	}
	return strings.Join(parts, " ")
}

// Disassemble walks s from address 0, consulting the effective memory
// (overlay-then-ROM via s.Get) at each address, stopping once an address is
// unreadable in both.
func Disassemble(s *vm.State) []Line {
	var lines []Line
	addr := vm.Address(0)
	for {
		raw, ok := s.Get(addr)
		if !ok {
			break
		}

		op, known := vm.Decode(raw)
		if !known {
			lines = append(lines, Line{Addr: addr, Raw: raw, Known: false})
			addr++
			continue
		}

		n := op.ArgCount()
		args := make([]vm.Word, 0, n)
		argAddr := addr + 1
		complete := true
		for i := 0; i < n; i++ {
			v, ok := s.Get(argAddr)
			if !ok {
				complete = false
				break
			}
			args = append(args, v)
			argAddr++
		}
		if !complete {
			// Not enough words left to hold the full instruction: emit the
			// opcode word itself as raw and let the next pass resynchronise.
			lines = append(lines, Line{Addr: addr, Raw: raw, Known: false})
			addr++
			continue
		}

		lines = append(lines, Line{Addr: addr, Op: op, Args: args, Known: true})
		addr = argAddr
	}
	return lines
}

// Format joins Disassemble's output into the full listing text the shell's
// `disassemble` command prints.
func Format(s *vm.State) string {
	lines := Disassemble(s)
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = l.String()
	}
	return strings.Join(rendered, "\n")
}
