package runtime

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nektos/stackscope/pkg/ast"
	"github.com/nektos/stackscope/pkg/common"
	"github.com/nektos/stackscope/pkg/model"
)

func quietContext() context.Context {
	logger, _ := test.NewNullLogger()
	return common.WithLogger(context.Background(), logger)
}

func parse(t *testing.T, body string) *ast.Program {
	t.Helper()
	p, err := model.ReadProgram(strings.NewReader("apiVersion: \"1.0\"\nname: test\nbody:\n" + body))
	require.NoError(t, err)
	return p.AST()
}

func run(t *testing.T, config Config, body string) *Result {
	t.Helper()
	return NewInterpreter(config).Run(quietContext(), parse(t, body))
}

func global(t *testing.T, r *Result, name string) string {
	t.Helper()
	b, ok := r.Global(name)
	require.True(t, ok, "global %q not found", name)
	return b.Value
}

type step struct {
	kind    EventKind
	context string
	value   string
}

func steps(r *Result, kinds ...EventKind) []step {
	var rtn []step
	for _, ev := range r.Trace.Filter(kinds...) {
		rtn = append(rtn, step{ev.Kind, ev.Context, ev.Value})
	}
	return rtn
}

func TestVarHoisting(t *testing.T) {
	r := run(t, Config{}, `
  - var: a
  - print: {id: a}
  - assign: {name: a, value: 10}
`)
	assert.Equal(t, StatusCompleted, r.Status.Kind)
	assert.Equal(t, []string{"undefined"}, r.Output)
	assert.Equal(t, "10", global(t, r, "a"))
}

func TestVarHoistingFromNestedBlocks(t *testing.T) {
	r := run(t, Config{}, `
  - print: {id: x}
  - if:
      test: false
      then:
        - var: {name: x, init: 1}
  - block:
      - block:
          - var: {name: x, init: 2}
  - print: {id: x}
  - var: {name: x, init: 3}
  - var: x
  - print: {id: x}
`)
	assert.Equal(t, StatusCompleted, r.Status.Kind, r.Status.String())
	assert.Equal(t, []string{"undefined", "2", "3"}, r.Output, "last executed initializer wins and bare var keeps the value")
}

func TestTemporalDeadZone(t *testing.T) {
	r := run(t, Config{}, `
  - print: {id: b}
  - let: {name: b, init: 5}
`)
	assert.Equal(t, StatusThrown, r.Status.Kind)
	assert.Equal(t, ReferenceError, r.Status.ErrorKind)
	assert.Equal(t, "b", r.Status.Name)
	assert.Equal(t, `Thrown(ReferenceError, "b")`, r.Status.String())
	assert.Empty(t, r.Output)

	b, ok := r.Global("b")
	require.True(t, ok)
	assert.Equal(t, Uninitialized, b.State)

	r = run(t, Config{}, `
  - let: {name: b, init: 5}
  - print: {id: b}
`)
	assert.True(t, r.Status.OK())
	assert.Equal(t, []string{"5"}, r.Output)
}

func TestTemporalDeadZoneInBlockShadowsOuter(t *testing.T) {
	r := run(t, Config{}, `
  - let: {name: x, init: outer}
  - block:
      - print: {id: x}
      - let: {name: x, init: inner}
`)
	assert.Equal(t, ReferenceError, r.Status.ErrorKind)
	assert.Equal(t, "x", r.Status.Name)
}

func TestConstReassignment(t *testing.T) {
	r := run(t, Config{}, `
  - const: {name: c, init: 1}
  - assign: {name: c, value: 2}
`)
	assert.Equal(t, `Thrown(TypeError, "c")`, r.Status.String())
	assert.Equal(t, "1", global(t, r, "c"))
}

func TestClosureCounter(t *testing.T) {
	r := run(t, Config{}, `
  - function:
      name: outer
      body:
        - let: {name: n, init: 0}
        - function:
            name: inner
            body:
              - expr: {update: {op: "++", name: n}}
              - return: {id: n}
        - return: {id: inner}
  - let: {name: f, init: {call: {callee: {id: outer}}}}
  - let: {name: first, init: {call: {callee: {id: f}}}}
  - let: {name: second, init: {call: {callee: {id: f}}}}
`)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, "1", global(t, r, "first"))
	assert.Equal(t, "2", global(t, r, "second"))

	f, ok := r.GlobalValue("f")
	require.True(t, ok)
	fn := f.(*Function)
	assert.Equal(t, "inner", fn.Name)
	n, ok := fn.Closure.Lookup("n")
	require.True(t, ok, "closure environment outlives the popped context")
	assert.Equal(t, Number(2), n.Value)
}

func TestClosureSeesLaterMutation(t *testing.T) {
	r := run(t, Config{}, `
  - function:
      name: outer
      body:
        - let: {name: x, init: 1}
        - function: {name: get, body: [{return: {id: x}}]}
        - assign: {name: x, value: 2}
        - return: {id: get}
  - let: {name: g, init: {call: {callee: {id: outer}}}}
  - print: {call: {callee: {id: g}}}
`)
	assert.Equal(t, []string{"2"}, r.Output)
}

func TestLexicalNotDynamicScope(t *testing.T) {
	r := run(t, Config{}, `
  - var: {name: x, init: global}
  - function: {name: show, body: [{return: {id: x}}]}
  - function:
      name: caller
      body:
        - var: {name: x, init: local}
        - return: {call: {callee: {id: show}}}
  - print: {call: {callee: {id: caller}}}
`)
	assert.Equal(t, []string{"global"}, r.Output)
}

func TestStackOverflow(t *testing.T) {
	r := run(t, Config{MaxDepth: 1000}, `
  - function:
      name: r
      body:
        - return: {call: {callee: {id: r}}}
  - call: {callee: {id: r}}
`)
	assert.Equal(t, StatusStackOverflow, r.Status.Kind)
	assert.Equal(t, 1000, r.Status.Depth)
	assert.Equal(t, "StackOverflow(1000)", r.Status.String())

	maxDepth := 0
	for _, ev := range r.Trace.Events {
		if ev.Depth > maxDepth {
			maxDepth = ev.Depth
		}
	}
	assert.Equal(t, 1000, maxDepth, "depth never exceeds the maximum")
	assert.Empty(t, r.Trace.Filter(EventPop), "trace is truncated at the overflow")
	last := r.Trace.Events[len(r.Trace.Events)-1]
	assert.Equal(t, EventThrow, last.Kind)
	assert.Equal(t, StackOverflow, last.ErrorKind)
}

func TestStackOverflowIsNotCaught(t *testing.T) {
	r := run(t, Config{MaxDepth: 50}, `
  - function: {name: r, body: [{return: {call: {callee: {id: r}}}}]}
  - try:
      block: [{call: {callee: {id: r}}}]
      catch: e
      handler: [{print: caught}]
`)
	assert.Equal(t, StatusStackOverflow, r.Status.Kind)
	assert.Empty(t, r.Output)
}

func TestGreetTrace(t *testing.T) {
	r := run(t, Config{}, `
  - function: {name: greet, body: [{print: hi}]}
  - call: {callee: {id: greet}}
  - print: done
`)
	assert.Equal(t, []step{
		{EventPush, "global", ""},
		{EventPush, "greet", ""},
		{EventOutput, "greet", "hi"},
		{EventPop, "greet", ""},
		{EventOutput, "global", "done"},
		{EventPop, "global", ""},
	}, steps(r, EventPush, EventPop, EventOutput))
}

func TestPushPopAreLIFO(t *testing.T) {
	r := run(t, Config{}, `
  - function: {name: c, body: [{return: 3}]}
  - function: {name: b, body: [{return: {call: {callee: {id: c}}}}]}
  - function: {name: a, body: [{expr: {call: {callee: {id: b}}}}, {return: {call: {callee: {id: c}}}}]}
  - print: {call: {callee: {id: a}}}
`)
	require.True(t, r.Status.OK())

	var stack []string
	for _, ev := range r.Trace.Filter(EventPush, EventPop) {
		switch ev.Kind {
		case EventPush:
			stack = append(stack, ev.Context)
		case EventPop:
			require.NotEmpty(t, stack)
			assert.Equal(t, stack[len(stack)-1], ev.Context)
			stack = stack[:len(stack)-1]
		}
	}
	assert.Empty(t, stack)
}

func TestErrorUnwindsEveryFrame(t *testing.T) {
	r := run(t, Config{}, `
  - function: {name: inner, body: [{print: {id: nope}}]}
  - function: {name: outer, body: [{expr: {call: {callee: {id: inner}}}}, {print: unreachable}]}
  - call: {callee: {id: outer}}
  - print: unreachable
`)
	assert.Equal(t, ReferenceError, r.Status.ErrorKind)
	assert.Equal(t, ContextFunction, r.Status.ContextKind)
	assert.Empty(t, r.Output)
	assert.Equal(t, []step{
		{EventPush, "global", ""},
		{EventPush, "outer", ""},
		{EventPush, "inner", ""},
		{EventPop, "inner", ""},
		{EventPop, "outer", ""},
		{EventPop, "global", ""},
	}, steps(r, EventPush, EventPop))
}

func TestFunctionDeclarationHoisting(t *testing.T) {
	r := run(t, Config{}, `
  - print: {call: {callee: {id: early}}}
  - function: {name: early, body: [{return: hoisted}]}
`)
	assert.Equal(t, []string{"hoisted"}, r.Output)
}

func TestFunctionExpressionIsNotHoisted(t *testing.T) {
	r := run(t, Config{}, `
  - call: {callee: {id: f}}
  - var: {name: f, init: {fn: {body: []}}}
`)
	assert.Equal(t, StatusThrown, r.Status.Kind)
	assert.Equal(t, TypeError, r.Status.ErrorKind)
	assert.Equal(t, "f", r.Status.Name)
	assert.Equal(t, "f is not a function", r.Status.Message)
}

func TestParameters(t *testing.T) {
	r := run(t, Config{}, `
  - function:
      name: pair
      params: [a, b]
      body:
        - return: {binary: {op: "+", left: {id: a}, right: {binary: {op: "+", left: ":", right: {id: b}}}}}
  - print: {call: {callee: {id: pair}, args: [1, 2]}}
  - print: {call: {callee: {id: pair}, args: [x]}}
`)
	assert.Equal(t, []string{"1:2", "x:undefined"}, r.Output)
}

func TestRecursion(t *testing.T) {
	r := run(t, Config{}, `
  - function:
      name: fact
      params: [n]
      body:
        - if:
            test: {binary: {op: "<=", left: {id: n}, right: 1}}
            then: [{return: 1}]
        - return: {binary: {op: "*", left: {id: n}, right: {call: {callee: {id: fact}, args: [{binary: {op: "-", left: {id: n}, right: 1}}]}}}}
  - print: {call: {callee: {id: fact}, args: [10]}}
`)
	assert.Equal(t, []string{"3628800"}, r.Output)
}

func TestReturnSkipsRemainingStatements(t *testing.T) {
	r := run(t, Config{}, `
  - function:
      name: f
      body:
        - block:
            - return: early
        - print: late
  - print: {call: {callee: {id: f}}}
`)
	assert.Equal(t, []string{"early"}, r.Output)
}

func TestSyntaxConflictIsFatal(t *testing.T) {
	r := run(t, Config{}, `
  - print: before
  - let: {name: a, init: 1}
  - let: {name: a, init: 2}
`)
	assert.Equal(t, StatusThrown, r.Status.Kind)
	assert.Equal(t, SyntaxConflict, r.Status.ErrorKind)
	assert.Equal(t, "a", r.Status.Name)
	assert.Empty(t, r.Output, "hoisting runs before any statement")
	assert.Empty(t, r.Trace.Filter(EventPop))
	assert.Len(t, r.Trace.Filter(EventThrow), 1)
}

func TestSyntaxConflictInsideTryIsNotCaught(t *testing.T) {
	r := run(t, Config{}, `
  - try:
      block:
        - var: v
        - block:
            - let: {name: q, init: 1}
            - const: {name: q, init: 2}
      catch: e
      handler: [{print: caught}]
`)
	assert.Equal(t, SyntaxConflict, r.Status.ErrorKind)
	assert.Empty(t, r.Output)
}

func TestDuplicateParameters(t *testing.T) {
	r := run(t, Config{}, `
  - function: {name: f, params: [a, a], body: []}
  - call: {callee: {id: f}, args: [1, 2]}
`)
	assert.Equal(t, SyntaxConflict, r.Status.ErrorKind)
}

func TestTypeof(t *testing.T) {
	r := run(t, Config{}, `
  - print: {unary: {op: typeof, arg: {id: undeclared}}}
  - print: {unary: {op: typeof, arg: 1}}
  - print: {unary: {op: typeof, arg: {fn: {body: []}}}}
  - print: {unary: {op: typeof, arg: null}}
  - print: {unary: {op: typeof, arg: {id: later}}}
  - let: later
`)
	assert.Equal(t, []string{"undefined", "number", "function", "object"}, r.Output)
	assert.Equal(t, ReferenceError, r.Status.ErrorKind, "typeof does not bypass the dead zone")
}

func TestTryCatch(t *testing.T) {
	r := run(t, Config{}, `
  - try:
      block:
        - print: {id: missing}
      catch: e
      handler:
        - print: {member: {object: {id: e}, property: name}}
        - print: {member: {object: {id: e}, property: message}}
  - try:
      block:
        - throw: {object: {code: 42}}
      catch: e
      handler:
        - print: {member: {object: {id: e}, property: code}}
  - try:
      block:
        - const: {name: k, init: 1}
        - assign: {name: k, value: 2}
      catch: err
      handler: [{print: {member: {object: {id: err}, property: name}}}]
  - print: done
`)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"ReferenceError", "missing is not defined", "42", "TypeError", "done"}, r.Output)
	_, ok := r.Global("e")
	assert.False(t, ok, "catch parameter is block scoped")
}

func TestUncaughtThrow(t *testing.T) {
	r := run(t, Config{}, `
  - throw: boom
`)
	assert.Equal(t, StatusThrown, r.Status.Kind)
	assert.Equal(t, ThrownError, r.Status.ErrorKind)
	assert.Equal(t, "boom", r.Status.Message)
}

func TestThisBinding(t *testing.T) {
	body := `
  - const:
      name: obj
      init:
        object:
          name: widget
          describe: {fn: {body: [{return: {member: {object: {this: {}}, property: name}}}]}}
          later: {fn: {body: [{return: {arrow: {body: [{return: {member: {object: {this: {}}, property: name}}}]}}}]}}
  - print: {call: {callee: {member: {object: {id: obj}, property: describe}}}}
  - let: {name: arrow, init: {call: {callee: {member: {object: {id: obj}, property: later}}}}}
  - print: {call: {callee: {id: arrow}}}
  - function: {name: plain, body: [{return: {unary: {op: typeof, arg: {this: {}}}}}]}
  - print: {call: {callee: {id: plain}}}
`
	r := run(t, Config{}, body)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"widget", "widget", "undefined"}, r.Output)

	r = run(t, Config{ThisMode: ThisGlobal}, body)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"widget", "widget", "object"}, r.Output)

	r = run(t, Config{}, `
  - function: {name: f, body: [{return: {member: {object: {this: {}}, property: x}}}]}
  - call: {callee: {id: f}}
`)
	assert.Equal(t, TypeError, r.Status.ErrorKind)
	assert.Contains(t, r.Status.Message, "Cannot read properties of undefined")
}

func TestEvalContext(t *testing.T) {
	r := run(t, Config{}, `
  - function:
      name: f
      body:
        - expr:
            eval:
              - var: {name: leaked, init: 1}
              - let: {name: kept, init: 2}
        - print: {id: leaked}
        - print: {unary: {op: typeof, arg: {id: kept}}}
  - call: {callee: {id: f}}
`)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"1", "undefined"}, r.Output)

	pushes := r.Trace.Filter(EventPush)
	require.Len(t, pushes, 3)
	assert.Equal(t, ContextEval, pushes[2].ContextKind)
	assert.Equal(t, 3, pushes[2].Depth)
}

func TestBlockScopeIsDiscarded(t *testing.T) {
	r := run(t, Config{}, `
  - block:
      - let: {name: inside, init: 1}
      - print: {id: inside}
  - print: {id: inside}
`)
	assert.Equal(t, []string{"1"}, r.Output)
	assert.Equal(t, ReferenceError, r.Status.ErrorKind)
	pushes := r.Trace.Filter(EventPush)
	assert.Len(t, pushes, 1, "blocks do not push contexts")
}

func TestBlockFunctionDeclaration(t *testing.T) {
	r := run(t, Config{}, `
  - print: {unary: {op: typeof, arg: {id: helper}}}
  - block:
      - print: {call: {callee: {id: helper}}}
      - function: {name: helper, body: [{return: ok}]}
  - print: {call: {callee: {id: helper}}}
`)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"undefined", "ok", "ok"}, r.Output)
}

func TestNamedFunctionExpressionSelfReference(t *testing.T) {
	r := run(t, Config{}, `
  - const:
      name: countdown
      init:
        fn:
          name: loop
          params: [n]
          body:
            - if:
                test: {binary: {op: ">", left: {id: n}, right: 0}}
                then: [{return: {call: {callee: {id: loop}, args: [{binary: {op: "-", left: {id: n}, right: 1}}]}}}]
            - return: liftoff
  - print: {call: {callee: {id: countdown}, args: [3]}}
  - print: {unary: {op: typeof, arg: {id: loop}}}
`)
	assert.Equal(t, []string{"liftoff", "undefined"}, r.Output)
}

func TestStepBudget(t *testing.T) {
	r := run(t, Config{StepBudget: 3}, `
  - print: 1
  - print: 2
  - print: 3
  - print: 4
`)
	assert.Equal(t, StatusAborted, r.Status.Kind)
	assert.Equal(t, []string{"1", "2", "3"}, r.Output)
	assert.Empty(t, r.Trace.Filter(EventPop))
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(quietContext())
	cancel()
	r := NewInterpreter(Config{}).Run(ctx, parse(t, `
  - print: never
`))
	assert.Equal(t, StatusAborted, r.Status.Kind)
	assert.Contains(t, r.Status.Message, "context canceled")
	assert.Empty(t, r.Output)
}

func TestTimeout(t *testing.T) {
	r := run(t, Config{Timeout: time.Nanosecond}, `
  - function: {name: spin, params: [n], body: [{return: {call: {callee: {id: spin}, args: [{binary: {op: "+", left: {id: n}, right: 1}}]}}}]}
  - call: {callee: {id: spin}, args: [0]}
`)
	assert.Equal(t, StatusAborted, r.Status.Kind)
}

func TestHoistOnly(t *testing.T) {
	r := run(t, Config{HoistOnly: true}, `
  - var: {name: a, init: 1}
  - let: b
  - function: {name: f, body: []}
  - print: {id: a}
`)
	assert.True(t, r.Status.OK())
	assert.Empty(t, r.Output)
	assert.Equal(t, "undefined", global(t, r, "a"))
	b, _ := r.Global("b")
	assert.Equal(t, Uninitialized, b.State)
	assert.Equal(t, "[Function: f]", global(t, r, "f"))
	assert.Len(t, r.Trace.Filter(EventHoist), 3)
	assert.Equal(t, []step{
		{EventPush, "global", ""},
		{EventPop, "global", ""},
	}, steps(r, EventPush, EventPop))
}

func TestReadWriteEvents(t *testing.T) {
	r := run(t, Config{}, `
  - let: {name: s, init: hi}
  - assign: {name: s, op: "+=", value: "!"}
  - print: {id: s}
`)
	var got []step
	for _, ev := range r.Trace.Filter(EventRead, EventWrite) {
		got = append(got, step{ev.Kind, ev.Name, ev.Value})
	}
	assert.Equal(t, []step{
		{EventWrite, "s", `"hi"`},
		{EventRead, "s", `"hi"`},
		{EventWrite, "s", `"hi!"`},
		{EventRead, "s", `"hi!"`},
	}, got)
}

func TestIndependentRuns(t *testing.T) {
	interp := NewInterpreter(Config{})
	program := parse(t, `
  - var: {name: n, init: 1}
  - expr: {update: {op: "++", name: n}}
`)
	first := interp.Run(quietContext(), program)
	second := interp.Run(quietContext(), program)
	assert.Equal(t, "2", global(t, first, "n"))
	assert.Equal(t, "2", global(t, second, "n"))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestInterpreterLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	ctx := common.WithLogger(context.Background(), logger)

	output := logrus.New()
	outputHook := test.NewLocal(output)
	ctx = common.WithOutputLogger(ctx, output)

	NewInterpreter(Config{}).Run(ctx, parse(t, `
  - function: {name: greet, body: [{print: hi}]}
  - call: {callee: {id: greet}}
`))

	var pushed bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "push function(greet)") {
			pushed = true
		}
	}
	assert.True(t, pushed, "context pushes are logged at debug level")

	require.Len(t, outputHook.AllEntries(), 1)
	assert.Equal(t, "hi", outputHook.LastEntry().Message)
	assert.Equal(t, true, outputHook.LastEntry().Data["raw_output"])
}

func TestRunIDFromContext(t *testing.T) {
	program := parse(t, `
  - print: hi
`)
	r := NewInterpreter(Config{}).Run(WithRunID(quietContext(), "fixed"), program)
	assert.Equal(t, "fixed", r.RunID)

	r = NewInterpreter(Config{}).Run(quietContext(), program)
	assert.NotEmpty(t, r.RunID)
	assert.NotEqual(t, "fixed", r.RunID)
}

func TestEvalRedefinesFunctions(t *testing.T) {
	r := run(t, Config{}, `
  - expr: {eval: [{function: {name: h, body: [{return: 1}]}}]}
  - expr: {eval: [{function: {name: h, body: [{return: 2}]}}]}
  - print: {call: {callee: {id: h}}}
`)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"2"}, r.Output)

	r = run(t, Config{}, `
  - function:
      name: f
      params: [p]
      body:
        - expr: {eval: [{function: {name: p, body: [{return: replaced}]}}]}
        - return: {call: {callee: {id: p}}}
  - print: {call: {callee: {id: f}, args: [1]}}
`)
	require.True(t, r.Status.OK(), r.Status.String())
	assert.Equal(t, []string{"replaced"}, r.Output)

	r = run(t, Config{}, `
  - let: {name: taken, init: 1}
  - expr: {eval: [{function: {name: taken, body: []}}]}
`)
	assert.Equal(t, SyntaxConflict, r.Status.ErrorKind)
}

func TestBlockFunctionShadowedByLet(t *testing.T) {
	for _, body := range []string{`
  - let: {name: g, init: 1}
  - block:
      - function: {name: g, body: [{return: inner}]}
      - print: {call: {callee: {id: g}}}
  - print: {id: g}
`, `
  - function:
      name: f
      body:
        - let: {name: g, init: 1}
        - block:
            - function: {name: g, body: [{return: inner}]}
            - print: {call: {callee: {id: g}}}
        - print: {id: g}
  - call: {callee: {id: f}}
`} {
		r := run(t, Config{}, body)
		require.True(t, r.Status.OK(), r.Status.String())
		assert.Equal(t, []string{"inner", "1"}, r.Output)
	}
}

func TestHoistTwiceConflicts(t *testing.T) {
	ctx := quietContext()
	trace := NewTrace()
	ex := &execution{
		ctx:    ctx,
		config: Config{}.withDefaults(),
		logger: common.Logger(ctx),
		stack:  NewCallStack(10, trace),
		trace:  trace,
		global: NewObject(),
	}
	env := NewEnvironment(ScopeGlobal, nil)
	ec := newExecutionContext(ContextGlobal, "global", env, Undefined)
	require.NoError(t, ex.stack.Push(ec))

	body := parse(t, `
  - var: a
  - let: b
  - function: {name: c, body: []}
`).Body
	require.NoError(t, ex.hoist(ec, body, env, true))
	assert.Equal(t, SyntaxConflict, errorKind(t, ex.hoist(ec, body, env, true)))
	assert.Len(t, env.Bindings(), 3)

	block := NewEnvironment(ScopeBlock, env)
	require.NoError(t, ex.hoist(ec, nil, block, false))
	assert.Equal(t, SyntaxConflict, errorKind(t, ex.hoist(ec, nil, block, false)))
}
