// Package ast holds the already-parsed program tree the engine evaluates.
package ast

// Node is any element of a program tree
type Node interface {
	node()
}

// Statement is a node that executes for effect
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that evaluates to a value
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of a tree
type Program struct {
	Name string
	Body []Statement
}

// DeclarationKind is the keyword of a variable declaration
type DeclarationKind string

const (
	DeclVar   DeclarationKind = "var"
	DeclLet   DeclarationKind = "let"
	DeclConst DeclarationKind = "const"
)

// Lexical reports whether the declaration is block scoped
func (k DeclarationKind) Lexical() bool {
	return k == DeclLet || k == DeclConst
}

// VariableDeclaration is `var|let|const name = init`
type VariableDeclaration struct {
	Kind DeclarationKind
	Name string
	Init Expression
}

// FunctionDeclaration is a named, hoisted function
type FunctionDeclaration struct {
	Name   string
	Params []string
	Body   []Statement
}

// ExpressionStatement evaluates an expression and drops the value
type ExpressionStatement struct {
	Expression Expression
}

// ReturnStatement leaves the current function; Value may be nil
type ReturnStatement struct {
	Value Expression
}

// Block is a braced statement list with its own lexical scope
type Block struct {
	Body []Statement
}

// If runs Consequent when Test is truthy, otherwise Alternate when set
type If struct {
	Test       Expression
	Consequent Statement
	Alternate  Statement
}

// PrintStatement is the observable output operation
type PrintStatement struct {
	Value Expression
}

// Try runs Block and, when it throws a recoverable error, Handler with
// the error bound to Param
type Try struct {
	Block   *Block
	Param   string
	Handler *Block
}

// Throw raises a user error carrying Value
type Throw struct {
	Value Expression
}

// Identifier references a binding by name
type Identifier struct {
	Name string
}

// LiteralKind tags the value held by a Literal
type LiteralKind int

const (
	LiteralUndefined LiteralKind = iota
	LiteralNull
	LiteralBoolean
	LiteralNumber
	LiteralString
)

// Literal is a primitive constant
type Literal struct {
	Kind   LiteralKind
	Bool   bool
	Number float64
	String string
}

// BinaryExpr covers arithmetic, comparison and logical operators
type BinaryExpr struct {
	Operator string
	Left     Expression
	Right    Expression
}

// UnaryExpr covers `!`, `-`, `+` and `typeof`
type UnaryExpr struct {
	Operator string
	Operand  Expression
}

// UpdateExpr is `++name`, `name++`, `--name` or `name--`
type UpdateExpr struct {
	Operator string
	Name     string
	Prefix   bool
}

// Assignment is `name op value` where op is `=` or a compound operator
type Assignment struct {
	Operator string
	Name     string
	Value    Expression
}

// FunctionExpression creates a closure over the current lexical environment
type FunctionExpression struct {
	Name   string
	Params []string
	Body   []Statement
	Arrow  bool
}

// CallExpression invokes Callee; a MemberExpression callee makes it a method call
type CallExpression struct {
	Callee    Expression
	Arguments []Expression
}

// MemberExpression reads a named property
type MemberExpression struct {
	Object   Expression
	Property string
}

// Property is one key of an ObjectLiteral
type Property struct {
	Key   string
	Value Expression
}

// ObjectLiteral builds a plain object
type ObjectLiteral struct {
	Properties []Property
}

// ThisExpression reads the receiver of the active context
type ThisExpression struct{}

// EvalExpression runs Body in a new eval context sharing the caller's
// variable environment
type EvalExpression struct {
	Body []Statement
}

func (*Program) node()             {}
func (*VariableDeclaration) node() {}
func (*FunctionDeclaration) node() {}
func (*ExpressionStatement) node() {}
func (*ReturnStatement) node()     {}
func (*Block) node()               {}
func (*If) node()                  {}
func (*PrintStatement) node()      {}
func (*Try) node()                 {}
func (*Throw) node()               {}
func (*Identifier) node()          {}
func (*Literal) node()             {}
func (*BinaryExpr) node()          {}
func (*UnaryExpr) node()           {}
func (*UpdateExpr) node()          {}
func (*Assignment) node()          {}
func (*FunctionExpression) node()  {}
func (*CallExpression) node()      {}
func (*MemberExpression) node()    {}
func (*ObjectLiteral) node()       {}
func (*ThisExpression) node()      {}
func (*EvalExpression) node()      {}

func (*VariableDeclaration) statementNode() {}
func (*FunctionDeclaration) statementNode() {}
func (*ExpressionStatement) statementNode() {}
func (*ReturnStatement) statementNode()     {}
func (*Block) statementNode()               {}
func (*If) statementNode()                  {}
func (*PrintStatement) statementNode()      {}
func (*Try) statementNode()                 {}
func (*Throw) statementNode()               {}

func (*Identifier) expressionNode()         {}
func (*Literal) expressionNode()            {}
func (*BinaryExpr) expressionNode()         {}
func (*UnaryExpr) expressionNode()          {}
func (*UpdateExpr) expressionNode()         {}
func (*Assignment) expressionNode()         {}
func (*FunctionExpression) expressionNode() {}
func (*CallExpression) expressionNode()     {}
func (*MemberExpression) expressionNode()   {}
func (*ObjectLiteral) expressionNode()      {}
func (*ThisExpression) expressionNode()     {}
func (*EvalExpression) expressionNode()     {}

// Number builds a numeric literal
func Number(f float64) *Literal {
	return &Literal{Kind: LiteralNumber, Number: f}
}

// String builds a string literal
func String(s string) *Literal {
	return &Literal{Kind: LiteralString, String: s}
}

// Bool builds a boolean literal
func Bool(b bool) *Literal {
	return &Literal{Kind: LiteralBoolean, Bool: b}
}

// Null builds the null literal
func Null() *Literal {
	return &Literal{Kind: LiteralNull}
}

// Undefined builds the undefined literal
func Undefined() *Literal {
	return &Literal{Kind: LiteralUndefined}
}

// Ident builds an identifier reference
func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}
