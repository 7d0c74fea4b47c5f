package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nektos/stackscope/pkg/ast"
	"github.com/nektos/stackscope/pkg/common"
)

// Interpreter runs programs
type Interpreter interface {
	Run(ctx context.Context, program *ast.Program) *Result
}

type interpreterImpl struct {
	config Config
}

// NewInterpreter creates an Interpreter. Every Run gets its own call stack,
// trace and global environment so runs never share state.
func NewInterpreter(config Config) Interpreter {
	return &interpreterImpl{
		config: config.withDefaults(),
	}
}

// execution is the state of one run
type execution struct {
	ctx    context.Context
	config Config
	logger logrus.FieldLogger
	stack  *CallStack
	trace  *Trace
	global *Object
	steps  int
	output []string
}

type completionKind int

const (
	completionNormal completionKind = iota
	completionReturn
)

type completion struct {
	kind  completionKind
	value Value
}

func (impl *interpreterImpl) Run(ctx context.Context, program *ast.Program) *Result {
	start := time.Now()
	if impl.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, impl.config.Timeout)
		defer cancel()
	}

	trace := NewTrace()
	ex := &execution{
		ctx:    ctx,
		config: impl.config,
		logger: common.Logger(ctx),
		stack:  NewCallStack(impl.config.MaxDepth, trace),
		trace:  trace,
		global: NewObject(),
	}

	globalEnv := NewEnvironment(ScopeGlobal, nil)
	err := ex.runGlobal(program, globalEnv)
	if err != nil {
		var rtErr *Error
		if !errors.As(err, &rtErr) || rtErr.IsFatal() {
			ex.stack.discard()
		}
	}

	result := &Result{
		RunID:    runID(ctx),
		Program:  program.Name,
		Status:   statusOf(err),
		Globals:  globalEnv.Snapshot(),
		Trace:    trace,
		Output:   ex.output,
		Steps:    ex.steps,
		MaxDepth: impl.config.MaxDepth,
		Duration: time.Since(start),
		Err:      err,
		globals:  globalEnv,
	}
	ex.logger.Debugf("program %q finished with %s after %d steps", program.Name, result.Status, result.Steps)
	return result
}

type runIDContextKey string

const runIDContextKeyVal = runIDContextKey("runtime.runID")

// WithRunID fixes the ID of the next run started with ctx
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDContextKeyVal, id)
}

func runID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDContextKeyVal).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

func (ex *execution) runGlobal(program *ast.Program, globalEnv *Environment) error {
	this := Undefined
	if ex.config.ThisMode == ThisGlobal {
		this = ex.global
	}
	ec := newExecutionContext(ContextGlobal, "global", globalEnv, this)
	if err := ex.stack.Push(ec); err != nil {
		return ex.raise(err)
	}
	if ex.config.HoistOnly {
		if err := ec.transition(StateHoisting); err != nil {
			return err
		}
		if err := ex.hoist(ec, program.Body, globalEnv, true); err != nil {
			_, err = ex.leave(ec, StateThrown, err)
			return err
		}
		// nothing runs, the global context completes right after hoisting
		if err := ec.transition(StateExecuting); err != nil {
			return err
		}
		_, err := ex.leave(ec, StateCompleted, nil)
		return err
	}
	_, err := ex.runContext(ec, program.Body, nil)
	return err
}

// runContext drives a pushed context through Hoisting, Executing and its
// terminal state, then pops it unless the error is fatal
func (ex *execution) runContext(ec *ExecutionContext, body []ast.Statement, bind func() error) (Value, error) {
	if err := ec.transition(StateHoisting); err != nil {
		return nil, err
	}
	err := ex.bindAndHoist(ec, body, bind)
	if err != nil {
		return ex.leave(ec, StateThrown, err)
	}

	if err := ec.transition(StateExecuting); err != nil {
		return nil, err
	}
	c, err := ex.execStatements(body)
	switch {
	case err != nil:
		return ex.leave(ec, StateThrown, err)
	case c.kind == completionReturn:
		ec.ReturnValue = c.value
		return ex.leave(ec, StateReturned, nil)
	}
	return ex.leave(ec, StateCompleted, nil)
}

func (ex *execution) bindAndHoist(ec *ExecutionContext, body []ast.Statement, bind func() error) error {
	if bind != nil {
		if err := bind(); err != nil {
			return err
		}
	}
	return ex.hoist(ec, body, ec.LexicalEnvironment, true)
}

func (ex *execution) leave(ec *ExecutionContext, state ContextState, err error) (Value, error) {
	if terr := ec.transition(state); terr != nil {
		return nil, terr
	}
	var rtErr *Error
	if err != nil && (!errors.As(err, &rtErr) || rtErr.IsFatal()) {
		return nil, err
	}
	if perr := ex.stack.Pop(ec); perr != nil {
		return nil, perr
	}
	ex.logger.Debugf("pop %s (%s)", ec, state)
	if err != nil {
		return nil, err
	}
	return ec.ReturnValue, nil
}

// callFunction runs fn in a new function context
func (ex *execution) callFunction(fn *Function, args []Value, this Value) (Value, error) {
	if fn.Arrow {
		this = fn.BoundThis
	}
	varEnv := NewEnvironment(ScopeFunction, fn.Closure)
	ec := newExecutionContext(ContextFunction, fn.DisplayName(), varEnv, this)
	ec.Function = fn
	if err := ex.stack.Push(ec); err != nil {
		return nil, ex.raise(err)
	}
	ex.logger.Debugf("push %s at depth %d", ec, ex.stack.Depth())

	bind := func() error {
		for i, p := range fn.Params {
			v := Undefined
			if i < len(args) {
				v = args[i]
			}
			if err := ex.declare(ec, varEnv, p, BindParameter, Initialized, v); err != nil {
				return err
			}
		}
		return nil
	}
	return ex.runContext(ec, fn.Body, bind)
}

// callEval runs body in an eval context that shares the caller's variable
// environment and gets a fresh lexical environment
func (ex *execution) callEval(body []ast.Statement) (Value, error) {
	caller := ex.stack.Top()
	ec := newExecutionContext(ContextEval, "eval", caller.VariableEnvironment, caller.This)
	ec.LexicalEnvironment = NewEnvironment(ScopeEval, caller.LexicalEnvironment)
	if err := ex.stack.Push(ec); err != nil {
		return nil, ex.raise(err)
	}
	return ex.runContext(ec, body, nil)
}

// raise attaches the running context to err and records a THROW event
func (ex *execution) raise(err error) error {
	var rtErr *Error
	if !errors.As(err, &rtErr) {
		rtErr = newError(InternalError, "", "%v", err)
	}
	if rtErr.ContextKind == "" {
		if top := ex.stack.Top(); top != nil {
			rtErr.ContextKind = top.Kind
			rtErr.ContextName = top.Name
		}
	}
	ex.record(&TraceEvent{
		Kind:      EventThrow,
		Name:      rtErr.Name,
		ErrorKind: rtErr.Kind,
		Error:     rtErr.Message,
	})
	if rtErr.IsFatal() {
		ex.logger.Debugf("fatal %s", rtErr)
	}
	return rtErr
}

func (ex *execution) record(ev *TraceEvent) {
	if top := ex.stack.Top(); top != nil {
		ev.Context = top.Name
		ev.ContextKind = top.Kind
	}
	ev.Depth = ex.stack.Depth()
	ex.trace.record(ev)
}

func (ex *execution) recordBinding(kind EventKind, name string, binding BindingKind, value Value, err error) {
	ev := &TraceEvent{
		Kind:    kind,
		Name:    name,
		Binding: binding,
	}
	if value != nil {
		ev.Value = Inspect(value)
	}
	var rtErr *Error
	if errors.As(err, &rtErr) {
		ev.ErrorKind = rtErr.Kind
		ev.Error = rtErr.Message
	}
	ex.record(ev)
}

// tick charges one statement against the budget and honors cancellation
func (ex *execution) tick() error {
	ex.steps++
	if ex.config.StepBudget > 0 && ex.steps > ex.config.StepBudget {
		return ex.raise(newError(Aborted, "", "step budget of %d exceeded", ex.config.StepBudget))
	}
	if err := ex.ctx.Err(); err != nil {
		return ex.raise(newError(Aborted, "", "%v", err))
	}
	if deadline, ok := ex.ctx.Deadline(); ok && time.Now().After(deadline) {
		return ex.raise(newError(Aborted, "", "%v", context.DeadlineExceeded))
	}
	return nil
}

func (ex *execution) current() *ExecutionContext {
	return ex.stack.Top()
}

func (ex *execution) read(name string) (Value, error) {
	v, err := ex.current().LexicalEnvironment.Read(name)
	ex.recordBinding(EventRead, name, "", v, err)
	if err != nil {
		return nil, ex.raise(err)
	}
	return v, nil
}

func (ex *execution) write(name string, v Value) error {
	err := ex.current().LexicalEnvironment.Write(name, v)
	if err != nil {
		ex.recordBinding(EventWrite, name, "", nil, err)
		return ex.raise(err)
	}
	ex.recordBinding(EventWrite, name, "", v, nil)
	return nil
}

func (ex *execution) initialize(decl *ast.VariableDeclaration, v Value) error {
	err := ex.current().LexicalEnvironment.DeclareAndInitialize(decl.Name, v)
	if err != nil {
		ex.recordBinding(EventWrite, decl.Name, bindingKindOf(decl.Kind), nil, err)
		return ex.raise(err)
	}
	ex.recordBinding(EventWrite, decl.Name, bindingKindOf(decl.Kind), v, nil)
	return nil
}

func (ex *execution) print(v Value) {
	text := v.String()
	ex.output = append(ex.output, text)
	ex.record(&TraceEvent{
		Kind:  EventOutput,
		Value: text,
	})
	common.OutputLogger(ex.ctx).WithField("raw_output", true).Infof("%s", text)
}

func (ex *execution) plainThis() Value {
	if ex.config.ThisMode == ThisGlobal {
		return ex.global
	}
	return Undefined
}

func (ex *execution) execStatements(stmts []ast.Statement) (completion, error) {
	for _, stmt := range stmts {
		if err := ex.tick(); err != nil {
			return completion{}, err
		}
		c, err := ex.execStatement(stmt)
		if err != nil || c.kind == completionReturn {
			return c, err
		}
	}
	return completion{}, nil
}

func (ex *execution) execStatement(stmt ast.Statement) (completion, error) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Init == nil {
			if s.Kind == ast.DeclVar {
				return completion{}, nil
			}
			return completion{}, ex.initialize(s, Undefined)
		}
		v, err := ex.evaluate(s.Init)
		if err != nil {
			return completion{}, err
		}
		return completion{}, ex.initialize(s, v)
	case *ast.FunctionDeclaration:
		return completion{}, nil
	case *ast.ExpressionStatement:
		_, err := ex.evaluate(s.Expression)
		return completion{}, err
	case *ast.ReturnStatement:
		if s.Value == nil {
			return completion{kind: completionReturn, value: Undefined}, nil
		}
		v, err := ex.evaluate(s.Value)
		if err != nil {
			return completion{}, err
		}
		return completion{kind: completionReturn, value: v}, nil
	case *ast.Block:
		return ex.execBlock(s.Body, ScopeBlock, nil)
	case *ast.If:
		test, err := ex.evaluate(s.Test)
		if err != nil {
			return completion{}, err
		}
		if IsTruthy(test) {
			return ex.execStatement(s.Consequent)
		} else if s.Alternate != nil {
			return ex.execStatement(s.Alternate)
		}
		return completion{}, nil
	case *ast.PrintStatement:
		v, err := ex.evaluate(s.Value)
		if err != nil {
			return completion{}, err
		}
		ex.print(v)
		return completion{}, nil
	case *ast.Try:
		return ex.execTry(s)
	case *ast.Throw:
		v, err := ex.evaluate(s.Value)
		if err != nil {
			return completion{}, err
		}
		thrown := newError(ThrownError, "", "%s", v.String())
		thrown.Value = v
		return completion{}, ex.raise(thrown)
	}
	return completion{}, ex.raise(newError(InternalError, "", "unsupported statement %T", stmt))
}

// execBlock enters a child lexical environment of the running context,
// hoists the block into it and runs it. No context is pushed.
func (ex *execution) execBlock(body []ast.Statement, kind ScopeKind, bind func(env *Environment) error) (completion, error) {
	ec := ex.current()
	env, restore := ec.enterScope(kind)
	defer restore()
	if bind != nil {
		if err := bind(env); err != nil {
			return completion{}, err
		}
	}
	if err := ex.hoist(ec, body, env, false); err != nil {
		return completion{}, err
	}
	return ex.execStatements(body)
}

func (ex *execution) execTry(s *ast.Try) (completion, error) {
	c, err := ex.execBlock(s.Block.Body, ScopeBlock, nil)
	if err == nil {
		return c, nil
	}
	var rtErr *Error
	if !errors.As(err, &rtErr) || rtErr.IsFatal() || s.Handler == nil {
		return c, err
	}
	ex.logger.Debugf("caught %s in %s", rtErr, ex.current())
	return ex.execBlock(s.Handler.Body, ScopeCatch, func(env *Environment) error {
		if s.Param == "" {
			return nil
		}
		return ex.declare(ex.current(), env, s.Param, BindLet, Initialized, errorValue(rtErr))
	})
}

func (ex *execution) evaluate(expr ast.Expression) (Value, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return ex.read(e.Name)
	case *ast.Literal:
		return literalValue(e), nil
	case *ast.BinaryExpr:
		return ex.evalBinary(e)
	case *ast.UnaryExpr:
		return ex.evalUnary(e)
	case *ast.UpdateExpr:
		return ex.evalUpdate(e)
	case *ast.Assignment:
		return ex.evalAssignment(e)
	case *ast.FunctionExpression:
		return ex.evalFunctionExpression(e), nil
	case *ast.CallExpression:
		return ex.evalCall(e)
	case *ast.MemberExpression:
		obj, err := ex.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		return ex.getProperty(obj, e.Property)
	case *ast.ObjectLiteral:
		obj := NewObject()
		for _, p := range e.Properties {
			v, err := ex.evaluate(p.Value)
			if err != nil {
				return nil, err
			}
			if fn, ok := v.(*Function); ok && fn.Name == "" {
				fn.Name = p.Key
			}
			obj.Set(p.Key, v)
		}
		return obj, nil
	case *ast.ThisExpression:
		return ex.current().This, nil
	case *ast.EvalExpression:
		return ex.callEval(e.Body)
	}
	return nil, ex.raise(newError(InternalError, "", "unsupported expression %T", expr))
}

func (ex *execution) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := ex.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		if !IsTruthy(left) {
			return left, nil
		}
		return ex.evaluate(e.Right)
	case "||":
		if IsTruthy(left) {
			return left, nil
		}
		return ex.evaluate(e.Right)
	case "??":
		if left != Undefined && left != Null {
			return left, nil
		}
		return ex.evaluate(e.Right)
	}
	right, err := ex.evaluate(e.Right)
	if err != nil {
		return nil, err
	}
	v, ok := binaryOp(e.Operator, left, right)
	if !ok {
		return nil, ex.raise(newError(InternalError, "", "unknown operator %q", e.Operator))
	}
	return v, nil
}

func (ex *execution) evalUnary(e *ast.UnaryExpr) (Value, error) {
	if id, ok := e.Operand.(*ast.Identifier); ok && e.Operator == "typeof" {
		if _, err := ex.current().LexicalEnvironment.Resolve(id.Name); err != nil {
			return String("undefined"), nil
		}
	}
	v, err := ex.evaluate(e.Operand)
	if err != nil {
		return nil, err
	}
	rtn, ok := unaryOp(e.Operator, v)
	if !ok {
		return nil, ex.raise(newError(InternalError, "", "unknown operator %q", e.Operator))
	}
	return rtn, nil
}

func (ex *execution) evalUpdate(e *ast.UpdateExpr) (Value, error) {
	old, err := ex.read(e.Name)
	if err != nil {
		return nil, err
	}
	n := coerceToNumber(old)
	updated := n + 1
	if e.Operator == "--" {
		updated = n - 1
	}
	if err := ex.write(e.Name, Number(updated)); err != nil {
		return nil, err
	}
	if e.Prefix {
		return Number(updated), nil
	}
	return Number(n), nil
}

func (ex *execution) evalAssignment(e *ast.Assignment) (Value, error) {
	var current Value
	if e.Operator != "=" {
		v, err := ex.read(e.Name)
		if err != nil {
			return nil, err
		}
		current = v
	}
	v, err := ex.evaluate(e.Value)
	if err != nil {
		return nil, err
	}
	if e.Operator != "=" {
		op := e.Operator[:len(e.Operator)-1]
		combined, ok := binaryOp(op, current, v)
		if !ok {
			return nil, ex.raise(newError(InternalError, e.Name, "unknown operator %q", e.Operator))
		}
		v = combined
	}
	if err := ex.write(e.Name, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (ex *execution) evalFunctionExpression(e *ast.FunctionExpression) *Function {
	ec := ex.current()
	fn := &Function{
		Name:    e.Name,
		Params:  e.Params,
		Body:    e.Body,
		Closure: ec.LexicalEnvironment,
		Arrow:   e.Arrow,
	}
	if e.Arrow {
		fn.BoundThis = ec.This
	}
	if e.Name != "" && !e.Arrow {
		// the name is visible only inside the function itself
		self := NewEnvironment(ScopeFunctionName, ec.LexicalEnvironment)
		_, _ = self.Declare(e.Name, BindConst, Initialized, fn)
		fn.Closure = self
	}
	return fn
}

func (ex *execution) evalCall(e *ast.CallExpression) (Value, error) {
	var callee, this Value
	if m, ok := e.Callee.(*ast.MemberExpression); ok {
		obj, err := ex.evaluate(m.Object)
		if err != nil {
			return nil, err
		}
		callee, err = ex.getProperty(obj, m.Property)
		if err != nil {
			return nil, err
		}
		this = obj
	} else {
		v, err := ex.evaluate(e.Callee)
		if err != nil {
			return nil, err
		}
		callee = v
		this = ex.plainThis()
	}

	args := make([]Value, 0, len(e.Arguments))
	for _, a := range e.Arguments {
		v, err := ex.evaluate(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(*Function)
	if !ok {
		name := calleeName(e.Callee)
		return nil, ex.raise(newError(TypeError, name, "%s is not a function", name))
	}
	return ex.callFunction(fn, args, this)
}

func calleeName(e ast.Expression) string {
	switch e := e.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.MemberExpression:
		return e.Property
	}
	return ast.Print(e)
}

func (ex *execution) getProperty(obj Value, prop string) (Value, error) {
	switch o := obj.(type) {
	case *Object:
		return o.Get(prop), nil
	case *Function:
		switch prop {
		case "name":
			return String(o.Name), nil
		case "length":
			return Number(len(o.Params)), nil
		}
		return Undefined, nil
	case String:
		if prop == "length" {
			return Number(len([]rune(string(o)))), nil
		}
		return Undefined, nil
	}
	if obj == Undefined || obj == Null {
		return nil, ex.raise(newError(TypeError, prop, "Cannot read properties of %s (reading '%s')", obj, prop))
	}
	return Undefined, nil
}

// String implements fmt.Stringer for debugging output
func (c completion) String() string {
	if c.kind == completionReturn {
		return fmt.Sprintf("return %s", Inspect(c.value))
	}
	return "normal"
}
