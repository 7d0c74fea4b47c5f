// Package runtime evaluates programs under execution context, call stack,
// lexical scope, hoisting and temporal dead zone rules.
package runtime

import (
	"strconv"
	"strings"

	"github.com/nektos/stackscope/pkg/ast"
)

// Type is the dynamic type of a Value
type Type int

const (
	TypeUndefined Type = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeFunction
	TypeObject
)

// Value is anything a binding can hold
type Value interface {
	Type() Type
	String() string
}

type undefinedValue struct{}
type nullValue struct{}

// Undefined and Null are singletons
var (
	Undefined Value = undefinedValue{}
	Null      Value = nullValue{}
)

func (undefinedValue) Type() Type     { return TypeUndefined }
func (undefinedValue) String() string { return "undefined" }
func (nullValue) Type() Type          { return TypeNull }
func (nullValue) String() string      { return "null" }

// Boolean value
type Boolean bool

func (Boolean) Type() Type { return TypeBoolean }
func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

// Number value
type Number float64

func (Number) Type() Type { return TypeNumber }
func (n Number) String() string {
	return ast.FormatNumber(float64(n))
}

// String value
type String string

func (String) Type() Type       { return TypeString }
func (s String) String() string { return string(s) }

// Function is a closure: code plus the environment it was defined in.
// Closure is shared by every call made through this value.
type Function struct {
	Name      string
	Params    []string
	Body      []ast.Statement
	Closure   *Environment
	Arrow     bool
	BoundThis Value
}

func (*Function) Type() Type { return TypeFunction }
func (f *Function) String() string {
	if f.Name == "" {
		return "[Function (anonymous)]"
	}
	return "[Function: " + f.Name + "]"
}

// DisplayName is the name used for the function's execution context
func (f *Function) DisplayName() string {
	if f.Name == "" {
		return "(anonymous)"
	}
	return f.Name
}

// Object is a plain property bag that keeps insertion order
type Object struct {
	keys  []string
	props map[string]Value
}

// NewObject creates an empty object
func NewObject() *Object {
	return &Object{props: map[string]Value{}}
}

func (*Object) Type() Type       { return TypeObject }
func (*Object) String() string   { return "[object Object]" }
func (o *Object) Keys() []string { return append([]string(nil), o.keys...) }

// Get returns the property or Undefined
func (o *Object) Get(key string) Value {
	if v, ok := o.props[key]; ok {
		return v
	}
	return Undefined
}

// Set adds or replaces a property
func (o *Object) Set(key string, v Value) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

// Inspect renders a value for traces: strings are quoted, objects show
// their properties
func Inspect(v Value) string {
	switch v := v.(type) {
	case String:
		return strconv.Quote(string(v))
	case *Object:
		if len(v.keys) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(v.keys))
		for _, k := range v.keys {
			inner := v.props[k]
			if _, nested := inner.(*Object); nested {
				parts = append(parts, k+": [Object]")
				continue
			}
			parts = append(parts, k+": "+Inspect(inner))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case nil:
		return "<empty>"
	}
	return v.String()
}

// TypeOf implements the typeof operator
func TypeOf(v Value) string {
	switch v.Type() {
	case TypeUndefined:
		return "undefined"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	}
	return "object"
}

func literalValue(l *ast.Literal) Value {
	switch l.Kind {
	case ast.LiteralNull:
		return Null
	case ast.LiteralBoolean:
		return Boolean(l.Bool)
	case ast.LiteralNumber:
		return Number(l.Number)
	case ast.LiteralString:
		return String(l.String)
	}
	return Undefined
}
