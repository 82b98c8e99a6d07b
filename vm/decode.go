package vm

// Opcode is the closed, exhaustively-matched tagged variant of the 22
// instructions — no open inheritance, just a switch.
type Opcode uint16

const (
	OpHalt Opcode = 0
	OpSet  Opcode = 1
	OpPush Opcode = 2
	OpPop  Opcode = 3
	OpEq   Opcode = 4
	OpGt   Opcode = 5
	OpJmp  Opcode = 6
	OpJt   Opcode = 7
	OpJf   Opcode = 8
	OpAdd  Opcode = 9
	OpMult Opcode = 10
	OpMod  Opcode = 11
	OpAnd  Opcode = 12
	OpOr   Opcode = 13
	OpNot  Opcode = 14
	OpRmem Opcode = 15
	OpWmem Opcode = 16
	OpCall Opcode = 17
	OpRet  Opcode = 18
	OpOut  Opcode = 19
	OpIn   Opcode = 20
	OpNop  Opcode = 21

	maxOpcode = OpNop
)

var opcodeNames = [...]string{
	OpHalt: "halt", OpSet: "set", OpPush: "push", OpPop: "pop",
	OpEq: "eq", OpGt: "gt", OpJmp: "jmp", OpJt: "jt", OpJf: "jf",
	OpAdd: "add", OpMult: "mult", OpMod: "mod", OpAnd: "and", OpOr: "or",
	OpNot: "not", OpRmem: "rmem", OpWmem: "wmem", OpCall: "call",
	OpRet: "ret", OpOut: "out", OpIn: "in", OpNop: "nop",
}

// argCounts is a pure total function of the opcode, stored as a table
// rather than a method switch since it never changes per-instance.
var argCounts = [...]int{
	OpHalt: 0, OpSet: 2, OpPush: 1, OpPop: 1,
	OpEq: 3, OpGt: 3, OpJmp: 1, OpJt: 2, OpJf: 2,
	OpAdd: 3, OpMult: 3, OpMod: 3, OpAnd: 3, OpOr: 3,
	OpNot: 2, OpRmem: 2, OpWmem: 2, OpCall: 1,
	OpRet: 0, OpOut: 1, OpIn: 1, OpNop: 0,
}

// String implements fmt.Stringer so disassembly and error messages share one
// rendering of an opcode.
func (op Opcode) String() string {
	if op > maxOpcode {
		return "?unknown?"
	}
	return opcodeNames[op]
}

// ArgCount returns how many operand words follow this opcode in the
// instruction stream.
func (op Opcode) ArgCount() int {
	if op > maxOpcode {
		return 0
	}
	return argCounts[op]
}

// Decode maps a raw word to an opcode. A word outside 0..21 is not a known
// opcode; the caller (the interpreter) turns that into a fatal fault since
// decoding only ever happens where a word is being read as an instruction.
func Decode(w Word) (Opcode, bool) {
	if w > uint16(maxOpcode) {
		return 0, false
	}
	return Opcode(w), true
}
