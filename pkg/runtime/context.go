package runtime

import (
	"fmt"
)

// ContextKind is the kind of an execution context
type ContextKind string

const (
	ContextGlobal   ContextKind = "global"
	ContextFunction ContextKind = "function"
	ContextEval     ContextKind = "eval"
)

// ContextState is a step of the per-call lifecycle
type ContextState int

const (
	StatePushed ContextState = iota
	StateHoisting
	StateExecuting
	StateReturned
	StateThrown
	StateCompleted
	StatePopped
)

func (s ContextState) String() string {
	switch s {
	case StatePushed:
		return "Pushed"
	case StateHoisting:
		return "Hoisting"
	case StateExecuting:
		return "Executing"
	case StateReturned:
		return "Returned"
	case StateThrown:
		return "Thrown"
	case StateCompleted:
		return "Completed"
	case StatePopped:
		return "Popped"
	}
	return fmt.Sprintf("ContextState(%d)", int(s))
}

var contextTransitions = map[ContextState][]ContextState{
	StatePushed:    {StateHoisting},
	StateHoisting:  {StateExecuting, StateThrown},
	StateExecuting: {StateReturned, StateThrown, StateCompleted},
	StateReturned:  {StatePopped},
	StateThrown:    {StatePopped},
	StateCompleted: {StatePopped},
}

// ExecutionContext is one frame of the call stack
type ExecutionContext struct {
	ID   int
	Kind ContextKind
	Name string
	// VariableEnvironment receives var and function declarations
	VariableEnvironment *Environment
	// LexicalEnvironment is the innermost block scope currently active
	LexicalEnvironment *Environment
	This               Value
	ReturnValue        Value
	Function           *Function

	state   ContextState
	history []ContextState
}

func newExecutionContext(kind ContextKind, name string, varEnv *Environment, this Value) *ExecutionContext {
	return &ExecutionContext{
		Kind:                kind,
		Name:                name,
		VariableEnvironment: varEnv,
		LexicalEnvironment:  varEnv,
		This:                this,
		ReturnValue:         Undefined,
		state:               StatePushed,
		history:             []ContextState{StatePushed},
	}
}

// State is the current lifecycle state
func (ec *ExecutionContext) State() ContextState {
	return ec.state
}

// History lists every state the context has been in
func (ec *ExecutionContext) History() []ContextState {
	return append([]ContextState(nil), ec.history...)
}

func (ec *ExecutionContext) transition(to ContextState) error {
	for _, allowed := range contextTransitions[ec.state] {
		if allowed == to {
			ec.state = to
			ec.history = append(ec.history, to)
			return nil
		}
	}
	return newError(InternalError, ec.Name, "illegal context transition %s -> %s", ec.state, to)
}

// enterScope makes a child of the current lexical environment active and
// returns a func restoring the previous one
func (ec *ExecutionContext) enterScope(kind ScopeKind) (*Environment, func()) {
	prev := ec.LexicalEnvironment
	env := NewEnvironment(kind, prev)
	ec.LexicalEnvironment = env
	return env, func() {
		ec.LexicalEnvironment = prev
	}
}

func (ec *ExecutionContext) String() string {
	return fmt.Sprintf("%s(%s)", ec.Kind, ec.Name)
}
