package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

// romImage is the read-only backing image. It is allocated once at load
// time and replaced only by Flash; every snapshot that shares an
// unconsolidated lineage holds the same *romImage pointer, so cloning never
// copies it.
type romImage struct {
	words []Word
	// hash is computed once when the image is built and reused by every
	// CanonicalKey call, so dedup hashing never rehashes the whole ROM.
	hash [32]byte
}

func newROMImage(words []Word) *romImage {
	r := &romImage{words: words}
	h := sha256.New()
	buf := make([]byte, 2)
	for _, w := range r.words {
		binary.LittleEndian.PutUint16(buf, w)
		h.Write(buf)
	}
	copy(r.hash[:], h.Sum(nil))
	return r
}

func (r *romImage) at(addr Address) (Word, bool) {
	if int(addr) < len(r.words) {
		return r.words[addr], true
	}
	return 0, false
}

// overlay is the sparse mapping of addresses to values that differ from
// ROM, plus the always-present register slots. It is deliberately a plain
// Go map rather than a dense 32768-entry array, so the content-hash
// equality used by the snapshot store only ever sees writes that actually
// differ from ROM; ordering for hashing is imposed at hash time by sorting
// keys, not by the storage structure itself.
type overlay map[Address]Word

func (o overlay) clone() overlay {
	out := make(overlay, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// State is the full machine state: ROM handle, overlay, stack, instruction
// pointer, running flag, pending input, and accumulated output.
type State struct {
	rom     *romImage
	Overlay overlay

	Stack []Word

	IP      Address
	Running bool

	Input  []rune
	Output []rune

	LiveOutput bool
}

// MaxStackSize caps the otherwise-unbounded stack at a large but finite
// size; overflow is a fatal fault rather than unbounded growth.
const MaxStackSize = 1 << 20

// New builds the initial machine state from a freshly loaded program image.
// Register slots start zeroed and always have overlay entries: 32768..32775
// are present in the overlay for the lifetime of the state.
func New(program []Word) *State {
	s := &State{
		rom:        newROMImage(program),
		Overlay:    make(overlay, NumRegisters),
		Running:    true,
		LiveOutput: true,
	}
	for r := Address(0); r < NumRegisters; r++ {
		s.Overlay[RegisterBase+r] = 0
	}
	return s
}

// Clone deep-copies everything except the shared, immutable ROM handle.
func (s *State) Clone() *State {
	return &State{
		rom:        s.rom,
		Overlay:    s.Overlay.clone(),
		Stack:      append([]Word(nil), s.Stack...),
		IP:         s.IP,
		Running:    s.Running,
		Input:      append([]rune(nil), s.Input...),
		Output:     append([]rune(nil), s.Output...),
		LiveOutput: s.LiveOutput,
	}
}

// ROMLen reports the length of the backing ROM image.
func (s *State) ROMLen() int {
	return len(s.rom.words)
}

// Get reads the effective value at address a: the overlay entry if
// present, else the ROM value if a is within range. ok is false when the
// address is unreadable; callers treat that as a fatal fault.
func (s *State) Get(a Address) (Word, bool) {
	if v, ok := s.Overlay[a]; ok {
		return v, true
	}
	return s.rom.at(a)
}

// Register reads register r (0-7) directly.
func (s *State) Register(r int) Word {
	v, _ := s.Get(RegisterBase + Address(r))
	return v
}

// SetRegister writes register r (0-7) directly, used by the register sweep
// driver to patch R7 before each candidate run.
func (s *State) SetRegister(r int, v Word) {
	s.Set(RegisterBase+Address(r), v)
}

// Set writes v at address a using the SET primitive: if a is within ROM and
// v equals the ROM value there, the overlay entry is removed (or never
// created) to preserve minimality. Register slots (>= RegisterBase) are
// never removed since they have no backing ROM value.
func (s *State) Set(a Address, v Word) {
	if a < RegisterBase {
		if romVal, ok := s.rom.at(a); ok && romVal == v {
			delete(s.Overlay, a)
			return
		}
	}
	s.Overlay[a] = v
}

// PushOutput appends a character to the output buffer. This package has no
// opinion about terminals: it is the caller's job to read LiveOutput and
// mirror newly emitted characters to a sink, which is what shell.REPL does
// per command.
func (s *State) PushOutput(r rune) {
	s.Output = append(s.Output, r)
}

// DrainOutput returns and clears the accumulated output buffer.
func (s *State) DrainOutput() string {
	out := string(s.Output)
	s.Output = nil
	return out
}

// EnqueueInput appends characters to the pending input queue, in order.
func (s *State) EnqueueInput(chars string) {
	s.Input = append(s.Input, []rune(chars)...)
}

// canonicalEntry is one (address, value) pair used only for hashing; it
// exists so overlay iteration order never leaks into the hash.
type canonicalEntry struct {
	addr Address
	val  Word
}

// CanonicalKey returns a stable hash of the full structural-equality tuple:
// rom content, overlay (sorted), stack, IP, running, input, output, and
// live-output. Each variable-length part is prefixed with its length, so
// two states hash equal iff they are structurally equal, which is the basis
// for snapshot deduplication.
func (s *State) CanonicalKey() [32]byte {
	h := sha256.New()
	h.Write(s.rom.hash[:])

	entries := make([]canonicalEntry, 0, len(s.Overlay))
	for a, v := range s.Overlay {
		entries = append(entries, canonicalEntry{a, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].addr < entries[j].addr })

	buf := make([]byte, 4)
	writeLen := func(n int) {
		binary.LittleEndian.PutUint32(buf, uint32(n))
		h.Write(buf)
	}

	writeLen(len(entries))
	for _, e := range entries {
		binary.LittleEndian.PutUint16(buf[0:2], e.addr)
		binary.LittleEndian.PutUint16(buf[2:4], e.val)
		h.Write(buf)
	}

	writeLen(len(s.Stack))
	for _, w := range s.Stack {
		binary.LittleEndian.PutUint16(buf[0:2], w)
		h.Write(buf[0:2])
	}

	binary.LittleEndian.PutUint16(buf[0:2], s.IP)
	h.Write(buf[0:2])

	boolByte := func(b bool) byte {
		if b {
			return 1
		}
		return 0
	}
	h.Write([]byte{boolByte(s.Running), boolByte(s.LiveOutput)})

	inBytes := []byte(string(s.Input))
	writeLen(len(inBytes))
	h.Write(inBytes)
	outBytes := []byte(string(s.Output))
	writeLen(len(outBytes))
	h.Write(outBytes)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Equal reports full structural equality, independent of hashing — used by
// tests that want to double-check CanonicalKey never collides spuriously.
func (s *State) Equal(other *State) bool {
	if s.rom.hash != other.rom.hash {
		return false
	}
	if len(s.Overlay) != len(other.Overlay) {
		return false
	}
	for a, v := range s.Overlay {
		if ov, ok := other.Overlay[a]; !ok || ov != v {
			return false
		}
	}
	if len(s.Stack) != len(other.Stack) {
		return false
	}
	for i, v := range s.Stack {
		if other.Stack[i] != v {
			return false
		}
	}
	return s.IP == other.IP &&
		s.Running == other.Running &&
		s.LiveOutput == other.LiveOutput &&
		string(s.Input) == string(other.Input) &&
		string(s.Output) == string(other.Output)
}
