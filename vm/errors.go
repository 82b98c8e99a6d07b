package vm

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel faults. Every fatal condition in the interpreter wraps one of
// these with pkgerrors.Wrap so the shell can print a cause chain while
// callers keep using errors.Is against the sentinel.
var (
	ErrInvalidOpcode    = errors.New("vm: invalid opcode")
	ErrInvalidOperand   = errors.New("vm: invalid operand")
	ErrStackUnderflow   = errors.New("vm: stack underflow")
	ErrStackOverflow    = errors.New("vm: stack overflow")
	ErrUnreadableMemory = errors.New("vm: unreadable memory")
	ErrDivideByZero     = errors.New("vm: division by zero")
	ErrBadInput         = errors.New("vm: bad input line")
)

// faultAt wraps a sentinel with the instruction pointer where it occurred,
// so a fatal fault's message always says where execution stopped.
func faultAt(ip Address, sentinel error, detail string) error {
	wrapped := pkgerrors.Wrap(sentinel, detail)
	return fmt.Errorf("@%d: %w", ip, wrapped)
}
