package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// runProgram registers fn on a fresh engine and executes it once, returning
// the results buffer and any trap.
func runProgram(t *testing.T, fn Function, params []Register) ([]Register, error) {
	t.Helper()
	engine := NewEngine()
	handle := engine.PushFunction(fn)
	results := make([]Register, fn.LenResults)
	err := engine.Execute(handle, params, results)
	return results, err
}

func regs(vs ...int32) []Register {
	out := make([]Register, len(vs))
	for i, v := range vs {
		out[i] = RegisterFromI32(v)
	}
	return out
}

func i32s(rs []Register) []int32 {
	out := make([]int32, len(rs))
	for i, r := range rs {
		out[i] = r.I32()
	}
	return out
}

func TestAddMul(t *testing.T) {
	results, err := runProgram(t, AddMul(), regs(2, 3))
	require.NoError(t, err)
	require.Equal(t, []int32{25}, i32s(results))
}

func TestAddMulNegatives(t *testing.T) {
	results, err := runProgram(t, AddMul(), regs(-4, 1))
	require.NoError(t, err)
	require.Equal(t, []int32{9}, i32s(results))
}

func TestCounterLoop(t *testing.T) {
	results, err := runProgram(t, CounterLoop(), regs(10000))
	require.NoError(t, err)
	require.Empty(t, results)
}

// Large n exercises runDispatchLoop's explicit loop rather than one Go call
// frame per instruction: it must complete without growing the host stack.
func TestCounterLoopLarge(t *testing.T) {
	results, err := runProgram(t, CounterLoop(), regs(1_000_000))
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSignatureMismatch(t *testing.T) {
	engine := NewEngine()
	handle := engine.PushFunction(AddMul())
	results := []Register{RegisterFromI32(-1)}
	err := engine.Execute(handle, regs(1), results)
	require.Equal(t, TrapUnmatchedSignature, err)
	require.Equal(t, int32(-1), results[0].I32())
}

func TestUnreachable(t *testing.T) {
	_, err := runProgram(t, UnreachableFn(), nil)
	require.Equal(t, TrapUnreachable, err)
}

func TestOverflowWrap(t *testing.T) {
	add := Build(2, 1, 0).PushInst(I32Add()).PushInst(Ret()).Finish()
	results, err := runProgram(t, add, regs(math.MaxInt32, 1))
	require.NoError(t, err)
	require.Equal(t, []int32{math.MinInt32}, i32s(results))
}

func TestConstReturn(t *testing.T) {
	for _, k := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
		results, err := runProgram(t, ConstReturn(k), nil)
		require.NoError(t, err)
		require.Equal(t, []int32{k}, i32s(results))
	}
}

func TestStackDrainedOnReturn(t *testing.T) {
	engine := NewEngine()
	handle := engine.PushFunction(AddMul())
	results := make([]Register, 1)
	require.NoError(t, engine.Execute(handle, regs(2, 3), results))
	require.Equal(t, 0, engine.stack.Len())
}

func TestIdempotentAcrossRuns(t *testing.T) {
	engine := NewEngine()
	handle := engine.PushFunction(AddMul())

	for i := 0; i < 3; i++ {
		results := make([]Register, 1)
		require.NoError(t, engine.Execute(handle, regs(2, 3), results))
		require.Equal(t, []int32{25}, i32s(results))
		require.Equal(t, 0, engine.stack.Len())
	}
}

// After a trap, the next Execute on the same engine starts from a cleared
// stack and runs normally.
func TestTrapThenCleanRun(t *testing.T) {
	engine := NewEngine()
	unreachable := engine.PushFunction(UnreachableFn())
	err := engine.Execute(unreachable, nil, nil)
	require.Equal(t, TrapUnreachable, err)

	addMul := engine.PushFunction(AddMul())
	results := make([]Register, 1)
	require.NoError(t, engine.Execute(addMul, regs(2, 3), results))
	require.Equal(t, []int32{25}, i32s(results))
}

// Execute lets a caller holding a decoded Instruction run it directly
// against a context, without going through the dispatch loop.
func TestInstructionExecute(t *testing.T) {
	stack := NewValueStack()
	ctx := &ExecutionContext{Stack: stack}

	next, terminal, err := I32Const(42).Execute(ctx, RegisterFromI32(7))
	require.NoError(t, err)
	require.False(t, terminal)
	require.Equal(t, int32(42), next.I32())
	require.Equal(t, int32(7), stack.Top().I32())

	next, terminal, err = Ret().Execute(ctx, next)
	require.NoError(t, err)
	require.True(t, terminal)
	require.Equal(t, int32(42), next.I32())
	require.Equal(t, int32(42), stack.Top().I32())
}

func TestValueStackOverflow(t *testing.T) {
	builder := Build(0, 1, 0)
	for i := 0; i < valueStackCapacity+1; i++ {
		builder = builder.PushInst(I32Const(1))
	}
	fn := builder.PushInst(Ret()).Finish()

	_, err := runProgram(t, fn, nil)
	require.Equal(t, TrapStackOverflow, err)
}

func BenchmarkCounterLoop(b *testing.B) {
	engine := NewEngine()
	handle := engine.PushFunction(CounterLoop())
	params := regs(100_000)
	for i := 0; i < b.N; i++ {
		if err := engine.Execute(handle, params, nil); err != nil {
			b.Fatal(err)
		}
	}
}
