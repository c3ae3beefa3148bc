package vm

// This file builds reference programs used both as acceptance tests and as
// the demos the stackvm CLI can run. Each constructor returns an
// unregistered Function; callers push it onto their own Engine.

// AddMul returns the (2,1,0) function `[i32_add, dup, i32_mul, ret]`: given
// params (a, b) it returns (a+b) * (a+b), with i32 wrap-around.
func AddMul() Function {
	return Build(2, 1, 0).
		PushInst(I32Add()).
		PushInst(Dup()).
		PushInst(I32Mul()).
		PushInst(Ret()).
		Finish()
}

// CounterLoop returns the (1,0,0) function that decrements its single
// parameter to zero and returns no results:
//
//	0: dup
//	1: i32_const(1)
//	2: i32_sub
//	3: dup
//	4: br_eqz(1)
//	5: drop
//	6: drop
//	7: ret_drop
//
// dup at index 0 primes the loop once; every pass after that re-enters at
// index 1, since the carried register already holds the live counter.
// br_eqz(1) takes the branch (jumps back to index 1) as long as the counter
// is still nonzero, so indices 1-4 are the repeating loop body. When the
// counter finally reaches zero, br_eqz instead advances one instruction
// past its ordinary fallthrough, skipping index 5 and landing on the
// single drop at index 6 that clears the one stack slot dup(0) left
// behind, before ret_drop at index 7 ends the run.
func CounterLoop() Function {
	return Build(1, 0, 0).
		PushInst(Dup()).
		PushInst(I32Const(1)).
		PushInst(I32Sub()).
		PushInst(Dup()).
		PushInst(BrEqz(1)).
		PushInst(Drop()).
		PushInst(Drop()).
		PushInst(RetDrop()).
		Finish()
}

// UnreachableFn returns the (0,0,0) function `[unreachable]`: always traps
// with Trap.Unreachable regardless of any preceding stack state.
func UnreachableFn() Function {
	return Build(0, 0, 0).
		PushInst(Unreachable()).
		Finish()
}

// ConstReturn returns the (0,1,0) function `[i32_const(k), ret]`: for any
// k, running it returns k.
func ConstReturn(k int32) Function {
	return Build(0, 1, 0).
		PushInst(I32Const(k)).
		PushInst(Ret()).
		Finish()
}
