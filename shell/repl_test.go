package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"synacorvm/config"
	"synacorvm/vm"
)

func newTestREPL(program []vm.Word) (*REPL, *bytes.Buffer) {
	var buf bytes.Buffer
	r := New(vm.New(program), config.Config{}, vm.NewCancelFlag(), &buf)
	return r, &buf
}

func TestDispatchDefaultEnqueuesInput(t *testing.T) {
	r, _ := newTestREPL([]vm.Word{vm.Word(vm.OpIn), 32768, vm.Word(vm.OpHalt)})
	quit, _, err := r.dispatch("hello\r")
	require.NoError(t, err)
	require.False(t, quit)
	require.Equal(t, []rune("hello\n"), r.state.Input)
}

func TestDispatchQuit(t *testing.T) {
	r, _ := newTestREPL([]vm.Word{vm.Word(vm.OpHalt)})
	quit, _, err := r.dispatch("quit")
	require.NoError(t, err)
	require.True(t, quit)
}

func TestDispatchGetAndSet(t *testing.T) {
	r, buf := newTestREPL([]vm.Word{1, 2, 3})
	quit, _, err := r.dispatch("get 0")
	require.NoError(t, err)
	require.False(t, quit)
	require.Contains(t, buf.String(), "@0 = 1")

	_, _, err = r.dispatch("set 0 9")
	require.NoError(t, err)
	v, ok := r.state.Get(0)
	require.True(t, ok)
	require.Equal(t, vm.Word(9), v)
}

func TestDispatchGetUsageError(t *testing.T) {
	r, _ := newTestREPL([]vm.Word{0})
	_, _, err := r.dispatch("get not-a-number")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUsage)
}

func TestDispatchLoadUnknownStep(t *testing.T) {
	r, _ := newTestREPL([]vm.Word{0})
	_, _, err := r.dispatch("load 5")
	require.Error(t, err)
}

func TestDispatchLoadRestoresSnapshot(t *testing.T) {
	r, _ := newTestREPL([]vm.Word{0, 0, 0})
	r.store.Upsert(r.state, 0)

	r.state.Set(0, 42)
	r.stepNo = 1
	r.store.Upsert(r.state, 1)

	_, _, err := r.dispatch("load 0")
	require.NoError(t, err)
	v, ok := r.state.Get(0)
	require.True(t, ok)
	require.Equal(t, vm.Word(0), v)
}

func TestDispatchDisassembleAlias(t *testing.T) {
	r, buf := newTestREPL([]vm.Word{19, 72, 0})
	_, _, err := r.dispatch("dissassemble")
	require.NoError(t, err)
	require.True(t, strings.Contains(buf.String(), "out 72"))
}

func TestCmdInputPrintsTranscript(t *testing.T) {
	r, buf := newTestREPL([]vm.Word{0})
	r.transcript = []string{"north", "south"}
	_, _, err := r.dispatch("input")
	require.NoError(t, err)
	require.Contains(t, buf.String(), "north")
	require.Contains(t, buf.String(), "south")
}

func TestDispatchAdvancesOnlyForInputEnqueue(t *testing.T) {
	r, _ := newTestREPL([]vm.Word{0})
	_, advances, err := r.dispatch("look around")
	require.NoError(t, err)
	require.True(t, advances)

	_, advances, err = r.dispatch("get 0")
	require.NoError(t, err)
	require.False(t, advances)

	_, advances, err = r.dispatch("solve")
	require.NoError(t, err)
	require.True(t, advances)

	_, advances, err = r.dispatch("quit")
	require.NoError(t, err)
	require.False(t, advances)
}

func TestMirrorOutputWritesOnlyNewCharactersWhenLive(t *testing.T) {
	r, buf := newTestREPL([]vm.Word{vm.Word(vm.OpOut), 72, vm.Word(vm.OpOut), 105, vm.Word(vm.OpHalt)})
	require.NoError(t, r.advanceAndSnapshot())
	require.Equal(t, "Hi", buf.String())

	// A second mirror pass with no new output must not re-print anything.
	r.mirrorOutput()
	require.Equal(t, "Hi", buf.String())
}

func TestMirrorOutputSuppressedWhenNotLive(t *testing.T) {
	r, buf := newTestREPL([]vm.Word{vm.Word(vm.OpOut), 72, vm.Word(vm.OpHalt)})
	r.state.LiveOutput = false
	require.NoError(t, r.advanceAndSnapshot())
	require.Empty(t, buf.String())
}
