package disasm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"synacorvm/vm"
)

func TestDisassembleSingleInstructionThenHalt(t *testing.T) {
	s := vm.New([]vm.Word{19, 72, 0}) // OUT 72; HALT
	lines := Disassemble(s)

	require.Len(t, lines, 2)
	require.Equal(t, vm.OpOut, lines[0].Op)
	require.Equal(t, []vm.Word{72}, lines[0].Args)
	require.Equal(t, vm.OpHalt, lines[1].Op)
	require.Equal(t, "@0 out 72", lines[0].String())
	require.Equal(t, "@2 halt", lines[1].String())
}

func TestDisassembleUnknownOpcodeEmitsRawAndResyncs(t *testing.T) {
	s := vm.New([]vm.Word{9999, 0})
	lines := Disassemble(s)
	require.Len(t, lines, 2)
	require.False(t, lines[0].Known)
	require.Equal(t, vm.Word(9999), lines[0].Raw)
	require.Equal(t, "@0 9999", lines[0].String())
	require.True(t, lines[1].Known)
	require.Equal(t, vm.OpHalt, lines[1].Op)
}

func TestDisassembleStopsAtUnreadableMemory(t *testing.T) {
	s := vm.New([]vm.Word{0})
	lines := Disassemble(s)
	require.Len(t, lines, 1)
}

func TestFormatJoinsLines(t *testing.T) {
	s := vm.New([]vm.Word{19, 72, 0})
	out := Format(s)
	require.Equal(t, "@0 out 72\n@2 halt", out)
}

func TestDisassembleFullLineShape(t *testing.T) {
	s := vm.New([]vm.Word{1, 32768, 5, 0})
	got := Disassemble(s)
	want := []Line{
		{Addr: 0, Op: vm.OpSet, Args: []vm.Word{32768, 5}, Known: true},
		{Addr: 3, Op: vm.OpHalt, Args: []vm.Word{}, Known: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("disassembly mismatch (-want +got):\n%s", diff)
	}
}
