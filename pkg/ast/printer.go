package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Print renders a node as script source. Binary and unary expressions are
// always parenthesized so the output never depends on operator precedence.
func Print(n Node) string {
	p := &printer{}
	p.node(n)
	return strings.TrimRight(p.sb.String(), "\n")
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...interface{}) {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case *Program:
		p.statements(n.Body)
	case Statement:
		p.statement(n)
	case Expression:
		p.sb.WriteString(p.expression(n))
	}
}

func (p *printer) statements(stmts []Statement) {
	for _, s := range stmts {
		p.statement(s)
	}
}

func (p *printer) block(body []Statement) {
	p.indent++
	p.statements(body)
	p.indent--
}

func (p *printer) statement(s Statement) {
	switch s := s.(type) {
	case *VariableDeclaration:
		if s.Init == nil {
			p.line("%s %s;", s.Kind, s.Name)
		} else {
			p.line("%s %s = %s;", s.Kind, s.Name, p.expression(s.Init))
		}
	case *FunctionDeclaration:
		p.line("function %s(%s) {", s.Name, strings.Join(s.Params, ", "))
		p.block(s.Body)
		p.line("}")
	case *ExpressionStatement:
		p.line("%s;", p.expression(s.Expression))
	case *ReturnStatement:
		if s.Value == nil {
			p.line("return;")
		} else {
			p.line("return %s;", p.expression(s.Value))
		}
	case *Block:
		p.line("{")
		p.block(s.Body)
		p.line("}")
	case *If:
		p.line("if (%s) {", p.expression(s.Test))
		p.block(unwrap(s.Consequent))
		if s.Alternate != nil {
			p.line("} else {")
			p.block(unwrap(s.Alternate))
		}
		p.line("}")
	case *PrintStatement:
		p.line("print(%s);", p.expression(s.Value))
	case *Try:
		p.line("try {")
		p.block(s.Block.Body)
		if s.Param != "" {
			p.line("} catch (%s) {", s.Param)
		} else {
			p.line("} catch (e) {")
		}
		if s.Handler != nil {
			p.block(s.Handler.Body)
		}
		p.line("}")
	case *Throw:
		p.line("throw %s;", p.expression(s.Value))
	default:
		p.line("/* %T */", s)
	}
}

func unwrap(s Statement) []Statement {
	if b, ok := s.(*Block); ok {
		return b.Body
	}
	return []Statement{s}
}

func (p *printer) expression(e Expression) string {
	switch e := e.(type) {
	case *Identifier:
		return e.Name
	case *Literal:
		return literal(e)
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", p.expression(e.Left), e.Operator, p.expression(e.Right))
	case *UnaryExpr:
		if e.Operator == "typeof" {
			return fmt.Sprintf("(typeof %s)", p.expression(e.Operand))
		}
		return fmt.Sprintf("(%s%s)", e.Operator, p.expression(e.Operand))
	case *UpdateExpr:
		if e.Prefix {
			return e.Operator + e.Name
		}
		return e.Name + e.Operator
	case *Assignment:
		return fmt.Sprintf("%s %s %s", e.Name, e.Operator, p.expression(e.Value))
	case *FunctionExpression:
		sub := &printer{indent: p.indent + 1}
		sub.statements(e.Body)
		body := sub.sb.String()
		closing := strings.Repeat("  ", p.indent) + "}"
		if e.Arrow {
			return fmt.Sprintf("(%s) => {\n%s%s", strings.Join(e.Params, ", "), body, closing)
		}
		name := e.Name
		if name != "" {
			name = " " + name
		}
		return fmt.Sprintf("function%s(%s) {\n%s%s", name, strings.Join(e.Params, ", "), body, closing)
	case *CallExpression:
		args := make([]string, 0, len(e.Arguments))
		for _, a := range e.Arguments {
			args = append(args, p.expression(a))
		}
		callee := p.expression(e.Callee)
		if _, ok := e.Callee.(*FunctionExpression); ok {
			callee = "(" + callee + ")"
		}
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))
	case *MemberExpression:
		return fmt.Sprintf("%s.%s", p.expression(e.Object), e.Property)
	case *ObjectLiteral:
		props := make([]string, 0, len(e.Properties))
		for _, prop := range e.Properties {
			props = append(props, fmt.Sprintf("%s: %s", prop.Key, p.expression(prop.Value)))
		}
		return "({" + strings.Join(props, ", ") + "})"
	case *ThisExpression:
		return "this"
	case *EvalExpression:
		sub := &printer{}
		sub.statements(e.Body)
		return fmt.Sprintf("eval(%s)", strconv.Quote(strings.TrimRight(sub.sb.String(), "\n")))
	}
	return fmt.Sprintf("/* %T */", e)
}

func literal(l *Literal) string {
	switch l.Kind {
	case LiteralNull:
		return "null"
	case LiteralBoolean:
		return strconv.FormatBool(l.Bool)
	case LiteralNumber:
		return FormatNumber(l.Number)
	case LiteralString:
		return strconv.Quote(l.String)
	}
	return "undefined"
}

// FormatNumber formats a float the way a script engine prints numbers
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
