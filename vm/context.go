package vm

// ExecutionContext is the per-invocation, transient record threaded through
// a single Engine.Execute call: a program counter, a borrowed view of the
// active function's instructions, and a mutable reference to the engine's
// reusable value stack. It does not outlive the Execute call that created
// it.
type ExecutionContext struct {
	pc    int
	insts []Instruction

	// Stack is a public mutable handle onto the engine's value stack, used
	// directly by opcode bodies.
	Stack *ValueStack
}

// NextInstruction returns insts[pc] and advances pc by one. No bounds
// checking is performed: a Function whose instruction stream omits a
// terminal opcode runs off the end as an ordinary Go slice-index panic, not
// a Trap. Programs are assumed well-formed.
func (ctx *ExecutionContext) NextInstruction() Instruction {
	inst := ctx.insts[ctx.pc]
	ctx.pc++
	return inst
}

// UpdatePC overwrites the program counter, used by br_eqz to take a branch.
func (ctx *ExecutionContext) UpdatePC(n int) {
	ctx.pc = n
}

// PC returns the current program counter.
func (ctx *ExecutionContext) PC() int {
	return ctx.pc
}

// checkedPush pushes v, reporting Trap.StackOverflow instead of corrupting
// memory if the value stack has no room left.
func (ctx *ExecutionContext) checkedPush(v Register) error {
	if !ctx.Stack.hasRoom(1) {
		return TrapStackOverflow
	}
	ctx.Stack.Push(v)
	return nil
}

// opFn is the dispatch target every opcode resolves to: it consumes the
// carried register and the instruction's immediate, and reports whether
// dispatch should continue to the next instruction (the register-augmented
// threaded dispatch convention) or stop.
//
// Go has no guaranteed tail-call elimination, so op bodies never invoke the
// next instruction themselves — runDispatchLoop below realizes the chain as
// an explicit loop instead, keeping host-stack depth O(1) regardless of
// program length.
type opFn func(ctx *ExecutionContext, reg Register, aux Register) (next Register, terminal bool, err error)

var opTable = [numOpcodes]opFn{
	opRet:         execRet,
	opRetDrop:     execRetDrop,
	opUnreachable: execUnreachable,
	opDrop:        execDrop,
	opDup:         execDup,
	opI32Add:      execI32Add,
	opI32Sub:      execI32Sub,
	opI32Mul:      execI32Mul,
	opI32Const:    execI32Const,
	opBrEqz:       execBrEqz,
}

func execRet(ctx *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	if err := ctx.checkedPush(reg); err != nil {
		return 0, true, err
	}
	return reg, true, nil
}

func execRetDrop(_ *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	return reg, true, nil
}

func execUnreachable(_ *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	return reg, true, TrapUnreachable
}

func execDrop(ctx *ExecutionContext, _ Register, _ Register) (Register, bool, error) {
	return ctx.Stack.Pop(), false, nil
}

func execDup(ctx *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	if err := ctx.checkedPush(reg); err != nil {
		return reg, true, err
	}
	return reg, false, nil
}

func execI32Add(ctx *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	lhs := ctx.Stack.Pop().I32()
	rhs := reg.I32()
	return RegisterFromI32(lhs + rhs), false, nil
}

func execI32Sub(ctx *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	lhs := ctx.Stack.Pop().I32()
	rhs := reg.I32()
	return RegisterFromI32(lhs - rhs), false, nil
}

func execI32Mul(ctx *ExecutionContext, reg Register, _ Register) (Register, bool, error) {
	lhs := ctx.Stack.Pop().I32()
	rhs := reg.I32()
	return RegisterFromI32(lhs * rhs), false, nil
}

func execI32Const(ctx *ExecutionContext, reg Register, aux Register) (Register, bool, error) {
	// i32_const carries the immediate both as the new carried register and
	// onto the stack: it pushes the previously carried value and makes aux
	// the new carried value, preserving "carried register == conceptual top
	// of stack" between instructions.
	if err := ctx.checkedPush(reg); err != nil {
		return reg, true, err
	}
	return aux, false, nil
}

func execBrEqz(ctx *ExecutionContext, reg Register, aux Register) (Register, bool, error) {
	// The carried register is the loop's live test value: nonzero means
	// "keep going" and takes the branch back to aux; zero means the count
	// reached its target and falls through one instruction past the
	// ordinary post-fetch pc (ctx.PC() is already advanced past br_eqz
	// itself, so "+1" here skips the instruction immediately following
	// br_eqz). See programs.go's CounterLoop for why both halves of this
	// are load-bearing: with only a forward "+1" fallthrough and a single
	// conditional branch, the backward edge of a loop can only exist on
	// the taken side.
	if reg != Register(0) {
		ctx.UpdatePC(int(aux.I32()))
	} else {
		ctx.UpdatePC(ctx.PC() + 1)
	}
	return ctx.Stack.Pop(), false, nil
}

// runDispatchLoop drives register-augmented threaded dispatch starting from
// the instruction at ctx.pc, carrying reg between opcode bodies until a
// terminal opcode stops it or a trap is produced.
func runDispatchLoop(ctx *ExecutionContext, reg Register) error {
	for {
		instr := ctx.NextInstruction()
		next, terminal, err := opTable[instr.op](ctx, reg, instr.aux)
		if err != nil {
			return err
		}
		if terminal {
			return nil
		}
		reg = next
	}
}
