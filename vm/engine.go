package vm

import "fmt"

// Func is an opaque token identifying a Function registered with an Engine.
// It is only valid for the Engine that produced it.
type Func int

// Engine owns a set of registered functions and a single reusable value
// stack. Execute calls against the same Engine must not run concurrently:
// the value stack is shared and reset at the start of every call. Concurrent
// execution requires separate Engine instances.
type Engine struct {
	functions []Function
	stack     ValueStack
}

// NewEngine returns an Engine with no registered functions and a freshly
// reset value stack.
func NewEngine() *Engine {
	return &Engine{}
}

// PushFunction registers fn with the engine and returns a handle usable with
// Execute for the engine's lifetime.
func (e *Engine) PushFunction(fn Function) Func {
	e.functions = append(e.functions, fn)
	return Func(len(e.functions) - 1)
}

// Execute runs the function identified by fn to completion: it binds params
// onto the value stack, seeds the initial carried register, drives
// threaded dispatch from instruction 0, and copies results out on success.
//
// fn being out of range is a programmer bug (this Func was never
// returned by this Engine, or belongs to a different Engine) and panics
// rather than trapping.
func (e *Engine) Execute(fn Func, params []Register, results []Register) error {
	if int(fn) < 0 || int(fn) >= len(e.functions) {
		panic(fmt.Sprintf("vm: invalid function handle %d", fn))
	}
	function := &e.functions[fn]

	if len(params) != function.LenParams || len(results) != function.LenResults {
		return TrapUnmatchedSignature
	}

	e.stack.Clear()
	for _, p := range params {
		// Binding parameters can never overflow the stack: Execute cleared
		// it immediately above and capacity far exceeds any realistic
		// arity, but the same capacity check checkedPush makes is applied
		// here so a pathological arity traps instead of corrupting memory.
		if !e.stack.hasRoom(1) {
			return TrapStackOverflow
		}
		e.stack.Push(p)
	}
	reg, _ := e.stack.TryPop()

	ctx := &ExecutionContext{
		pc:    0,
		insts: function.Instructions,
		Stack: &e.stack,
	}

	if err := runDispatchLoop(ctx, reg); err != nil {
		return err
	}

	if e.stack.Len() != function.LenResults {
		panic(fmt.Sprintf(
			"vm: expected %d values on the stack upon execution completion but found %d",
			function.LenResults, e.stack.Len(),
		))
	}
	copy(results, e.stack.Drain())
	return nil
}
