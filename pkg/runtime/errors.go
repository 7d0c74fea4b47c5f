package runtime

import (
	"fmt"
)

// ErrorKind classifies runtime failures
type ErrorKind string

const (
	ReferenceError ErrorKind = "ReferenceError"
	TypeError      ErrorKind = "TypeError"
	StackOverflow  ErrorKind = "StackOverflow"
	SyntaxConflict ErrorKind = "SyntaxConflict"
	// Aborted is raised when the host budget or context cancels a run
	Aborted ErrorKind = "Aborted"
	// ThrownError is a value raised by a throw statement
	ThrownError   ErrorKind = "Error"
	InternalError ErrorKind = "InternalError"
)

// Error is a failure raised while evaluating a program
type Error struct {
	Kind ErrorKind
	// Name is the offending identifier, when there is one
	Name        string
	Message     string
	ContextKind ContextKind
	ContextName string
	// Depth is the stack depth at which a StackOverflow was raised
	Depth int
	// Value is the thrown value for ThrownError
	Value Value
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.ContextKind != "" {
		msg = fmt.Sprintf("%s (in %s context %q)", msg, e.ContextKind, e.ContextName)
	}
	return msg
}

// IsFatal reports whether the error aborts the run instead of unwinding
// through catch handlers
func (e *Error) IsFatal() bool {
	switch e.Kind {
	case StackOverflow, SyntaxConflict, Aborted, InternalError:
		return true
	}
	return false
}

func newError(kind ErrorKind, name string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

func notDefined(name string) *Error {
	return newError(ReferenceError, name, "%s is not defined", name)
}

func inTDZ(name string) *Error {
	return newError(ReferenceError, name, "Cannot access '%s' before initialization", name)
}

func constAssignment(name string) *Error {
	return newError(TypeError, name, "Assignment to constant variable '%s'", name)
}

func redeclared(name string) *Error {
	return newError(SyntaxConflict, name, "Identifier '%s' has already been declared", name)
}

// errorValue is the value a catch parameter receives
func errorValue(e *Error) Value {
	if e.Kind == ThrownError && e.Value != nil {
		return e.Value
	}
	obj := NewObject()
	obj.Set("name", String(e.Kind))
	obj.Set("message", String(e.Message))
	return obj
}
