package vm

import "fmt"

// opcode identifies the opcode body to invoke for an Instruction. It is a
// dispatch-table index rather than a raw function pointer: Go gives no
// portable way to compare func values, and instruction.go wants Instruction
// to stay comparable and cheap to print.
type opcode uint8

const (
	opRet opcode = iota
	opRetDrop
	opUnreachable
	opDrop
	opDup
	opI32Add
	opI32Sub
	opI32Mul
	opI32Const
	opBrEqz
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	opRet:         "ret",
	opRetDrop:     "ret_drop",
	opUnreachable: "unreachable",
	opDrop:        "drop",
	opDup:         "dup",
	opI32Add:      "i32_add",
	opI32Sub:      "i32_sub",
	opI32Mul:      "i32_mul",
	opI32Const:    "i32_const",
	opBrEqz:       "br_eqz",
}

func (o opcode) String() string {
	if o >= numOpcodes {
		return "?unknown?"
	}
	return opcodeNames[o]
}

// Instruction is a compact (op, aux) pair. aux is a Register-sized immediate,
// zero when the opcode does not use one. Instructions are copyable and have
// no identity.
type Instruction struct {
	op  opcode
	aux Register
}

func (i Instruction) String() string {
	if i.op == opI32Const || i.op == opBrEqz {
		return fmt.Sprintf("%s %d", i.op, i.aux.I32())
	}
	return i.op.String()
}

// Execute invokes this instruction's opcode body directly against ctx and
// reg, without fetching or advancing pc. It exists for callers that already
// hold a decoded Instruction (tests, tracing tools); the hot dispatch loop
// in runDispatchLoop calls opTable directly instead to avoid the extra
// indirection on the threaded path.
func (i Instruction) Execute(ctx *ExecutionContext, reg Register) (next Register, terminal bool, err error) {
	return opTable[i.op](ctx, reg, i.aux)
}

// Ret pushes the carried register onto the stack and returns.
func Ret() Instruction { return Instruction{op: opRet} }

// RetDrop returns without touching the stack or the carried register.
func RetDrop() Instruction { return Instruction{op: opRetDrop} }

// Unreachable always traps with Trap.Unreachable.
func Unreachable() Instruction { return Instruction{op: opUnreachable} }

// Drop replaces the carried register with the stack's popped top, discarding
// the old carried value.
func Drop() Instruction { return Instruction{op: opDrop} }

// Dup pushes the carried register back onto the stack, leaving it carried.
func Dup() Instruction { return Instruction{op: opDup} }

// I32Add pops lhs, adds the carried register (rhs) to it with i32
// wrap-around, and carries the result.
func I32Add() Instruction { return Instruction{op: opI32Add} }

// I32Sub pops lhs, subtracts the carried register (rhs) from it with i32
// wrap-around, and carries the result.
func I32Sub() Instruction { return Instruction{op: opI32Sub} }

// I32Mul pops lhs, multiplies it by the carried register (rhs) with i32
// wrap-around, and carries the result.
func I32Mul() Instruction { return Instruction{op: opI32Mul} }

// I32Const pushes the previously carried value and makes value the new
// carried register.
func I32Const(value int32) Instruction {
	return Instruction{op: opI32Const, aux: RegisterFromI32(value)}
}

// BrEqz branches to target while the carried register is nonzero; when it
// equals the default (zero) register it instead skips the one instruction
// right after br_eqz. Either way it pops a fresh value off the stack as the
// next carried register.
func BrEqz(target uint32) Instruction {
	return Instruction{op: opBrEqz, aux: RegisterFromI32(int32(target))}
}
