package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var rtErr *Error
	require.True(t, errors.As(err, &rtErr), "expected *runtime.Error, got %v", err)
	return rtErr.Kind
}

func TestEnvironmentDeclare(t *testing.T) {
	table := []struct {
		first, second BindingKind
		conflict      bool
	}{
		{BindVar, BindVar, false},
		{BindFunction, BindVar, false},
		{BindParameter, BindVar, false},
		{BindVar, BindFunction, false},
		{BindLet, BindVar, true},
		{BindConst, BindVar, true},
		{BindVar, BindLet, true},
		{BindLet, BindLet, true},
		{BindLet, BindConst, true},
		{BindFunction, BindFunction, true},
		{BindParameter, BindParameter, true},
		{BindFunction, BindLet, true},
	}

	for _, tt := range table {
		tt := tt
		t.Run(string(tt.first)+"-then-"+string(tt.second), func(t *testing.T) {
			env := NewEnvironment(ScopeFunction, nil)
			_, err := env.Declare("x", tt.first, Initialized, Number(1))
			require.NoError(t, err)
			_, err = env.Declare("x", tt.second, Initialized, Number(2))
			if tt.conflict {
				assert.Equal(t, SyntaxConflict, errorKind(t, err))
				return
			}
			assert.NoError(t, err)
			assert.Len(t, env.Bindings(), 1)
		})
	}
}

func TestEnvironmentVarKeepsValue(t *testing.T) {
	env := NewEnvironment(ScopeGlobal, nil)
	_, err := env.Declare("a", BindVar, Initialized, Undefined)
	require.NoError(t, err)
	require.NoError(t, env.Write("a", Number(10)))

	_, err = env.Declare("a", BindVar, Initialized, Undefined)
	require.NoError(t, err)
	v, err := env.Read("a")
	require.NoError(t, err)
	assert.Equal(t, Number(10), v)
}

func TestEnvironmentFunctionReplacesVar(t *testing.T) {
	env := NewEnvironment(ScopeGlobal, nil)
	_, err := env.Declare("f", BindVar, Initialized, Undefined)
	require.NoError(t, err)
	fn := &Function{Name: "f"}
	b, err := env.Declare("f", BindFunction, Initialized, fn)
	require.NoError(t, err)
	assert.Equal(t, BindFunction, b.Kind)
	assert.Same(t, fn, b.Value)
}

func TestEnvironmentScopeChain(t *testing.T) {
	global := NewEnvironment(ScopeGlobal, nil)
	fn := NewEnvironment(ScopeFunction, global)
	block := NewEnvironment(ScopeBlock, fn)

	_, err := global.Declare("x", BindVar, Initialized, String("global"))
	require.NoError(t, err)
	_, err = block.Declare("x", BindLet, Initialized, String("block"))
	require.NoError(t, err)

	v, err := block.Read("x")
	require.NoError(t, err)
	assert.Equal(t, String("block"), v, "inner name hides outer")

	v, err = fn.Read("x")
	require.NoError(t, err)
	assert.Equal(t, String("global"), v)

	_, err = block.Read("missing")
	assert.Equal(t, ReferenceError, errorKind(t, err))
	assert.EqualError(t, err, "ReferenceError: missing is not defined")

	assert.Equal(t, ReferenceError, errorKind(t, block.Write("missing", Number(1))), "no implicit globals")

	assert.Equal(t, []*Environment{block, fn, global}, block.Chain())
	assert.Nil(t, global.Outer())
}

func TestEnvironmentTDZ(t *testing.T) {
	env := NewEnvironment(ScopeBlock, nil)
	_, err := env.Declare("y", BindLet, Uninitialized, nil)
	require.NoError(t, err)

	_, err = env.Read("y")
	assert.Equal(t, ReferenceError, errorKind(t, err))
	assert.Contains(t, err.Error(), "Cannot access 'y' before initialization")
	assert.Equal(t, ReferenceError, errorKind(t, env.Write("y", Number(1))))

	require.NoError(t, env.DeclareAndInitialize("y", Number(3)))
	v, err := env.Read("y")
	require.NoError(t, err)
	assert.Equal(t, Number(3), v)
	require.NoError(t, env.Write("y", Number(4)))
}

func TestEnvironmentConst(t *testing.T) {
	env := NewEnvironment(ScopeBlock, nil)
	_, err := env.Declare("c", BindConst, Uninitialized, nil)
	require.NoError(t, err)
	require.NoError(t, env.DeclareAndInitialize("c", Number(1)))

	assert.Equal(t, TypeError, errorKind(t, env.Write("c", Number(2))))
	assert.Equal(t, TypeError, errorKind(t, env.DeclareAndInitialize("c", Number(2))))
	v, err := env.Read("c")
	require.NoError(t, err)
	assert.Equal(t, Number(1), v)
}

func TestEnvironmentSnapshotOrder(t *testing.T) {
	env := NewEnvironment(ScopeGlobal, nil)
	for _, n := range []string{"zeta", "alpha", "mid"} {
		_, err := env.Declare(n, BindVar, Initialized, Undefined)
		require.NoError(t, err)
	}
	_, err := env.Declare("later", BindLet, Uninitialized, nil)
	require.NoError(t, err)

	snap := env.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, "zeta", snap[0].Name)
	assert.Equal(t, "alpha", snap[1].Name)
	assert.Equal(t, "mid", snap[2].Name)
	assert.Equal(t, BindingSnapshot{Name: "later", Kind: BindLet, State: Uninitialized}, snap[3])
	assert.Equal(t, "undefined", snap[0].Value)
}

func TestCallStack(t *testing.T) {
	trace := NewTrace()
	stack := NewCallStack(2, trace)
	global := newExecutionContext(ContextGlobal, "global", NewEnvironment(ScopeGlobal, nil), Undefined)
	fn := newExecutionContext(ContextFunction, "f", NewEnvironment(ScopeFunction, nil), Undefined)
	extra := newExecutionContext(ContextFunction, "g", NewEnvironment(ScopeFunction, nil), Undefined)

	require.NoError(t, stack.Push(global))
	require.NoError(t, stack.Push(fn))
	assert.Equal(t, 2, stack.Depth())
	assert.Same(t, fn, stack.Top())

	err := stack.Push(extra)
	assert.Equal(t, StackOverflow, errorKind(t, err))
	assert.Equal(t, 2, stack.Depth(), "overflow must not push")

	assert.Equal(t, InternalError, errorKind(t, stack.Pop(global)), "pop must be LIFO")

	for _, ec := range []*ExecutionContext{fn, global} {
		require.NoError(t, ec.transition(StateHoisting))
		require.NoError(t, ec.transition(StateExecuting))
		require.NoError(t, ec.transition(StateCompleted))
	}
	require.NoError(t, stack.Pop(fn))
	require.NoError(t, stack.Pop(global))
	assert.Nil(t, stack.Top())

	var kinds []EventKind
	for _, ev := range trace.Events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventPush, EventPush, EventPop, EventPop}, kinds)
	assert.Equal(t, "f", trace.Events[2].Context)
}

func TestContextStateMachine(t *testing.T) {
	ec := newExecutionContext(ContextFunction, "f", NewEnvironment(ScopeFunction, nil), Undefined)
	assert.Equal(t, StatePushed, ec.State())

	err := ec.transition(StateExecuting)
	assert.Equal(t, InternalError, errorKind(t, err), "no transition skips Hoisting")

	require.NoError(t, ec.transition(StateHoisting))
	require.NoError(t, ec.transition(StateExecuting))
	require.NoError(t, ec.transition(StateReturned))
	assert.Error(t, ec.transition(StateCompleted))
	require.NoError(t, ec.transition(StatePopped))
	assert.Error(t, ec.transition(StateHoisting), "Popped is terminal")

	assert.Equal(t, []ContextState{StatePushed, StateHoisting, StateExecuting, StateReturned, StatePopped}, ec.History())
	assert.Equal(t, "Returned", StateReturned.String())
}
