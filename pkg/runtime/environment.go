package runtime

import (
	"sync/atomic"
)

// ScopeKind tells what created an Environment
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeFunction ScopeKind = "function"
	ScopeBlock    ScopeKind = "block"
	ScopeCatch    ScopeKind = "catch"
	ScopeEval     ScopeKind = "eval"
	// ScopeFunctionName holds the self-binding of a named function expression
	ScopeFunctionName ScopeKind = "function-name"
)

var environmentSeq atomic.Uint64

// Environment is an environment record: names to bindings in declaration
// order plus a link to the enclosing record. Records are shared by
// reference, never copied, so closures observe later writes.
type Environment struct {
	ID       uint64
	Kind     ScopeKind
	names    []string
	bindings map[string]*Binding
	outer    *Environment
	hoisted  bool
}

// NewEnvironment creates an empty record whose outer link is outer
func NewEnvironment(kind ScopeKind, outer *Environment) *Environment {
	return &Environment{
		ID:       environmentSeq.Add(1),
		Kind:     kind,
		bindings: map[string]*Binding{},
		outer:    outer,
	}
}

// Outer returns the enclosing record, nil for the global record
func (e *Environment) Outer() *Environment {
	return e.outer
}

// Lookup finds a binding in this record only
func (e *Environment) Lookup(name string) (*Binding, bool) {
	b, ok := e.bindings[name]
	return b, ok
}

// Bindings lists this record's bindings in declaration order
func (e *Environment) Bindings() []*Binding {
	rtn := make([]*Binding, 0, len(e.names))
	for _, n := range e.names {
		rtn = append(rtn, e.bindings[n])
	}
	return rtn
}

// Snapshot copies this record's bindings into their serializable form
func (e *Environment) Snapshot() []BindingSnapshot {
	rtn := make([]BindingSnapshot, 0, len(e.names))
	for _, b := range e.Bindings() {
		rtn = append(rtn, b.snapshot())
	}
	return rtn
}

// Chain returns this record followed by every outer record
func (e *Environment) Chain() []*Environment {
	var rtn []*Environment
	for env := e; env != nil; env = env.outer {
		rtn = append(rtn, env)
	}
	return rtn
}

// Declare adds a binding to this record.
//
// A var over an existing var, function or parameter is a no-op that keeps
// the current value. A function declaration replaces a var. Any other
// pairing of the same name is a SyntaxConflict.
func (e *Environment) Declare(name string, kind BindingKind, state BindingState, value Value) (*Binding, error) {
	if existing, ok := e.bindings[name]; ok {
		switch {
		case kind == BindVar && !existing.Kind.Lexical():
			return existing, nil
		case kind == BindFunction && existing.Kind == BindVar:
			existing.Kind = BindFunction
			existing.State = Initialized
			existing.Value = value
			return existing, nil
		}
		return nil, redeclared(name)
	}
	b := &Binding{
		Name:  name,
		Kind:  kind,
		State: state,
		Value: value,
	}
	e.names = append(e.names, name)
	e.bindings[name] = b
	return b, nil
}

// Resolve walks the scope chain from this record outwards
func (e *Environment) Resolve(name string) (*Binding, error) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.bindings[name]; ok {
			return b, nil
		}
	}
	return nil, notDefined(name)
}

// Read resolves name and returns its value, failing inside the dead zone
func (e *Environment) Read(name string) (Value, error) {
	b, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !b.Initialized() {
		return nil, inTDZ(name)
	}
	return b.Value, nil
}

// Write assigns to an existing binding
func (e *Environment) Write(name string, value Value) error {
	b, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if !b.Initialized() {
		return inTDZ(name)
	}
	if b.Kind == BindConst {
		return constAssignment(name)
	}
	b.Value = value
	return nil
}

// DeclareAndInitialize runs a declaration statement: the pre-hoisted
// binding receives value and leaves the dead zone
func (e *Environment) DeclareAndInitialize(name string, value Value) error {
	b, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if b.Kind == BindConst && b.Initialized() {
		return constAssignment(name)
	}
	b.Value = value
	b.State = Initialized
	return nil
}
