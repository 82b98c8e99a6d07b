package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"synacorvm/vm"
)

func TestUpsertFirstSeenAndRevisit(t *testing.T) {
	st := New()
	s := vm.New([]vm.Word{0, 0, 0})

	firstSeen, isNew := st.Upsert(s, 0)
	require.Equal(t, 0, firstSeen)
	require.True(t, isNew)

	// Same structural state recorded again at a later step is a revisit.
	s2 := vm.New([]vm.Word{0, 0, 0})
	firstSeen, isNew = st.Upsert(s2, 3)
	require.Equal(t, 0, firstSeen)
	require.False(t, isNew)

	// A genuinely different state is new.
	s.SetRegister(0, 1)
	firstSeen, isNew = st.Upsert(s, 4)
	require.Equal(t, 4, firstSeen)
	require.True(t, isNew)
}

func TestLoadUnknownStep(t *testing.T) {
	st := New()
	_, err := st.Load(99)
	require.ErrorIs(t, err, ErrUnknownStep)
}

func TestLoadReturnsIndependentClone(t *testing.T) {
	st := New()
	s := vm.New([]vm.Word{0})
	st.Upsert(s, 0)

	loaded, err := st.Load(0)
	require.NoError(t, err)
	loaded.SetRegister(0, 42)

	reloaded, err := st.Load(0)
	require.NoError(t, err)
	require.Equal(t, vm.Word(0), reloaded.Register(0), "mutating a loaded clone must not affect the archived state")
}

func TestDiffFindsExactlyChangedKey(t *testing.T) {
	rom := make([]vm.Word, 101)
	rom[100] = 5

	st := New()
	base := vm.New(rom)
	st.Upsert(base, 0)

	changed := base.Clone()
	changed.Set(100, 7)
	st.Upsert(changed, 1)

	diff, err := st.Diff(0, 1)
	require.NoError(t, err)
	require.Equal(t, []vm.Address{100}, diff)
}

func TestDiffUnknownStep(t *testing.T) {
	st := New()
	s := vm.New([]vm.Word{0})
	st.Upsert(s, 0)
	_, err := st.Diff(0, 5)
	require.ErrorIs(t, err, ErrUnknownStep)
}
