package vm

import (
	"encoding/binary"
	"fmt"
)

// Word is a 15-bit value packed into a 16-bit cell. Values 0..32767 are
// literals, 32768..32775 name registers R0-R7, and anything at or above
// 32776 is never a valid operand.
type Word = uint16

// Address is an index into the unified code/data/register space.
type Address = uint16

const (
	// ModBase is the modulus every arithmetic result is reduced against.
	ModBase Word = 32768
	// RegisterBase is the first address that aliases into the register file.
	RegisterBase Address = 32768
	// NumRegisters is the number of general-purpose registers (R0-R7).
	NumRegisters = 8
	// RegisterEnd is one past the last valid register address.
	RegisterEnd Address = RegisterBase + NumRegisters
	// MaxOperand is one past the largest legal raw operand word.
	MaxOperand Word = RegisterEnd
)

// IsRegister reports whether w names a register rather than a literal or
// memory address.
func IsRegister(w Word) bool {
	return w >= RegisterBase && w < RegisterEnd
}

// RegisterIndex returns the 0-based register index named by w. Callers must
// have already checked IsRegister(w).
func RegisterIndex(w Word) int {
	return int(w - RegisterBase)
}

// DecodeWords decodes a little-endian stream of 16-bit words, address N at
// byte offset 2N, low byte first. A trailing odd byte is an error.
//
// This is the "Word I/O" component: it has no opinion about where the bytes
// came from (that is a cmd/workbench concern, per the image-loading
// external collaborator boundary).
func DecodeWords(data []byte) ([]Word, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("vm: image has trailing odd byte (%d bytes total)", len(data))
	}
	words := make([]Word, len(data)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return words, nil
}

// EncodeWords is the inverse of DecodeWords, used by tests that want to
// round-trip an image.
func EncodeWords(words []Word) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(out[2*i:], w)
	}
	return out
}
