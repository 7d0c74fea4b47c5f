package runtime

import (
	"github.com/nektos/stackscope/pkg/ast"
)

// BindingKind records how a name was declared
type BindingKind string

const (
	BindVar       BindingKind = "var"
	BindLet       BindingKind = "let"
	BindConst     BindingKind = "const"
	BindFunction  BindingKind = "function"
	BindParameter BindingKind = "parameter"
)

func bindingKindOf(k ast.DeclarationKind) BindingKind {
	switch k {
	case ast.DeclLet:
		return BindLet
	case ast.DeclConst:
		return BindConst
	}
	return BindVar
}

// Lexical reports whether the binding has a temporal dead zone
func (k BindingKind) Lexical() bool {
	return k == BindLet || k == BindConst
}

// BindingState is the initialization state of a binding
type BindingState string

const (
	Uninitialized BindingState = "uninitialized"
	Initialized   BindingState = "initialized"
)

// Binding is one named storage cell
type Binding struct {
	Name  string
	Kind  BindingKind
	State BindingState
	Value Value
}

// Initialized reports whether the binding has left its dead zone
func (b *Binding) Initialized() bool {
	return b.State == Initialized
}

// BindingSnapshot is the serializable view of a binding
type BindingSnapshot struct {
	Name  string       `json:"name"`
	Kind  BindingKind  `json:"kind"`
	State BindingState `json:"state"`
	Value string       `json:"value,omitempty"`
	Type  string       `json:"type,omitempty"`
}

func (b *Binding) snapshot() BindingSnapshot {
	s := BindingSnapshot{
		Name:  b.Name,
		Kind:  b.Kind,
		State: b.State,
	}
	if b.Initialized() && b.Value != nil {
		s.Value = Inspect(b.Value)
		s.Type = TypeOf(b.Value)
	}
	return s
}
