// Package snapshot implements the content-addressed archive of machine
// states used for deduplication, time travel, and differential inspection.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"synacorvm/vm"
)

// ErrUnknownStep is returned by Load/Diff for a step index that was never
// recorded, matching the "recovered: print message, continue" error class.
var ErrUnknownStep = errors.New("snapshot: unknown step index")

// Store is the two associative structures kept in lockstep: first_seen
// (state -> earliest step index) and by_step (step index -> canonical
// state). It is not safe for concurrent use; the shell drives it from a
// single goroutine, and the register sweep never touches it.
type Store struct {
	firstSeen map[[32]byte]int
	byStep    map[int]*vm.State
}

// New returns an empty store.
func New() *Store {
	return &Store{
		firstSeen: make(map[[32]byte]int),
		byStep:    make(map[int]*vm.State),
	}
}

// Upsert records current as having been observed at stepNo. It returns the
// step at which this exact state was first seen (which may be stepNo
// itself, or an earlier step if this is a revisit) and whether this call
// created a new by_step entry.
//
// first_seen and by_step only gain a new entry when the returned step
// equals stepNo, i.e. this is the first time this exact state has ever been
// observed; a revisit leaves both unchanged, so first_seen keeps the
// earliest step. A revisit is detectable by the
// caller because the returned value is strictly less than stepNo.
func (st *Store) Upsert(current *vm.State, stepNo int) (firstSeenAt int, isNew bool) {
	key := current.CanonicalKey()
	if existing, ok := st.firstSeen[key]; ok {
		return existing, false
	}
	st.firstSeen[key] = stepNo
	st.byStep[stepNo] = current.Clone()
	return stepNo, true
}

// Load returns a fresh clone of the state recorded at step K.
func (st *Store) Load(k int) (*vm.State, error) {
	s, ok := st.byStep[k]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStep, "step %d", k)
	}
	return s.Clone(), nil
}

// Diff reports the overlay addresses whose effective values differ between
// the snapshots recorded at steps A and B.
func (st *Store) Diff(a, b int) ([]vm.Address, error) {
	sa, ok := st.byStep[a]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStep, "step %d", a)
	}
	sb, ok := st.byStep[b]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStep, "step %d", b)
	}

	seen := make(map[vm.Address]bool)
	for addr := range sa.Overlay {
		seen[addr] = true
	}
	for addr := range sb.Overlay {
		seen[addr] = true
	}

	var changed []vm.Address
	for addr := range seen {
		va, aok := sa.Get(addr)
		vb, bok := sb.Get(addr)
		if aok != bok || va != vb {
			changed = append(changed, addr)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	return changed, nil
}

// String renders a one-line store summary.
func (st *Store) String() string {
	return fmt.Sprintf("snapshot store: %d distinct states, %d recorded steps", len(st.firstSeen), len(st.byStep))
}
