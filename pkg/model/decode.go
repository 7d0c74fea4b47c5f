package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nektos/stackscope/pkg/ast"
)

// DecodeError points at the offending node of a program file
type DecodeError struct {
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func nodeErrorf(n *yaml.Node, format string, args ...interface{}) error {
	return &DecodeError{
		Line:   n.Line,
		Column: n.Column,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func isNull(n *yaml.Node) bool {
	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// singleKey splits a `{kind: value}` node
func singleKey(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, nodeErrorf(n, "expected a single-key mapping naming the node kind")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// fields indexes a mapping node by key
func fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErrorf(n, "expected a mapping")
	}
	rtn := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		known := false
		for _, a := range allowed {
			if a == key {
				known = true
				break
			}
		}
		if !known {
			return nil, nodeErrorf(n.Content[i], "unknown field %q", key)
		}
		rtn[key] = n.Content[i+1]
	}
	return rtn, nil
}

func requiredString(n *yaml.Node, f map[string]*yaml.Node, key string) (string, error) {
	v, ok := f[key]
	if !ok || isNull(v) || v.Kind != yaml.ScalarNode || v.Value == "" {
		return "", nodeErrorf(n, "%q is required", key)
	}
	return v.Value, nil
}

func optionalString(f map[string]*yaml.Node, key string) string {
	if v, ok := f[key]; ok && v.Kind == yaml.ScalarNode && !isNull(v) {
		return v.Value
	}
	return ""
}

func optionalBool(f map[string]*yaml.Node, key string) (bool, error) {
	v, ok := f[key]
	if !ok || isNull(v) {
		return false, nil
	}
	var b bool
	if err := v.Decode(&b); err != nil {
		return false, nodeErrorf(v, "%q must be a boolean", key)
	}
	return b, nil
}

func stringList(f map[string]*yaml.Node, key string) ([]string, error) {
	v, ok := f[key]
	if !ok || isNull(v) {
		return []string{}, nil
	}
	var list []string
	if err := v.Decode(&list); err != nil {
		return nil, nodeErrorf(v, "%q must be a list of names", key)
	}
	return list, nil
}

func decodeStatements(n *yaml.Node) ([]ast.Statement, error) {
	if isNull(n) {
		return []ast.Statement{}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErrorf(n, "expected a list of statements")
	}
	rtn := make([]ast.Statement, 0, len(n.Content))
	for _, c := range n.Content {
		s, err := decodeStatement(c)
		if err != nil {
			return nil, err
		}
		rtn = append(rtn, s)
	}
	return rtn, nil
}

func decodeBlock(n *yaml.Node) (*ast.Block, error) {
	body, err := decodeStatements(n)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Body: body}, nil
}

func decodeStatement(n *yaml.Node) (ast.Statement, error) {
	kind, val, err := singleKey(n)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "var", "let", "const":
		return decodeVariable(ast.DeclarationKind(kind), val)
	case "function":
		f, err := fields(val, "name", "params", "body")
		if err != nil {
			return nil, err
		}
		name, err := requiredString(val, f, "name")
		if err != nil {
			return nil, err
		}
		params, err := stringList(f, "params")
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(f["body"])
		if err != nil {
			return nil, err
		}
		return &ast.FunctionDeclaration{Name: name, Params: params, Body: body}, nil
	case "expr":
		e, err := decodeExpression(val)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Expression: e}, nil
	case "return":
		if isNull(val) {
			return &ast.ReturnStatement{}, nil
		}
		e, err := decodeExpression(val)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Value: e}, nil
	case "block":
		return decodeBlock(val)
	case "if":
		return decodeIf(val)
	case "print":
		e, err := decodeExpression(val)
		if err != nil {
			return nil, err
		}
		return &ast.PrintStatement{Value: e}, nil
	case "try":
		return decodeTry(val)
	case "throw":
		e, err := decodeExpression(val)
		if err != nil {
			return nil, err
		}
		return &ast.Throw{Value: e}, nil
	}
	if expressionKinds[kind] {
		e, err := decodeExpression(n)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Expression: e}, nil
	}
	return nil, nodeErrorf(n, "unknown statement kind %q", kind)
}

func decodeVariable(kind ast.DeclarationKind, n *yaml.Node) (ast.Statement, error) {
	decl := &ast.VariableDeclaration{Kind: kind}
	switch n.Kind {
	case yaml.ScalarNode:
		decl.Name = n.Value
	case yaml.MappingNode:
		f, err := fields(n, "name", "init")
		if err != nil {
			return nil, err
		}
		if decl.Name, err = requiredString(n, f, "name"); err != nil {
			return nil, err
		}
		if init, ok := f["init"]; ok {
			if decl.Init, err = decodeExpression(init); err != nil {
				return nil, err
			}
		}
	default:
		return nil, nodeErrorf(n, "%s expects a name or {name, init}", kind)
	}
	if decl.Name == "" {
		return nil, nodeErrorf(n, "%s declaration is missing a name", kind)
	}
	if kind == ast.DeclConst && decl.Init == nil {
		return nil, nodeErrorf(n, "missing initializer in const declaration %q", decl.Name)
	}
	return decl, nil
}

// branch accepts either a statement list or a single statement
func branch(n *yaml.Node) (ast.Statement, error) {
	if n.Kind == yaml.SequenceNode {
		return decodeBlock(n)
	}
	return decodeStatement(n)
}

func decodeIf(n *yaml.Node) (ast.Statement, error) {
	f, err := fields(n, "test", "then", "else")
	if err != nil {
		return nil, err
	}
	test, ok := f["test"]
	if !ok {
		return nil, nodeErrorf(n, "\"test\" is required")
	}
	rtn := &ast.If{}
	if rtn.Test, err = decodeExpression(test); err != nil {
		return nil, err
	}
	then, ok := f["then"]
	if !ok {
		return nil, nodeErrorf(n, "\"then\" is required")
	}
	if rtn.Consequent, err = branch(then); err != nil {
		return nil, err
	}
	if alt, ok := f["else"]; ok && !isNull(alt) {
		if rtn.Alternate, err = branch(alt); err != nil {
			return nil, err
		}
	}
	return rtn, nil
}

func decodeTry(n *yaml.Node) (ast.Statement, error) {
	f, err := fields(n, "block", "catch", "handler")
	if err != nil {
		return nil, err
	}
	rtn := &ast.Try{Param: optionalString(f, "catch")}
	if rtn.Block, err = decodeBlock(f["block"]); err != nil {
		return nil, err
	}
	handler, ok := f["handler"]
	if !ok {
		return nil, nodeErrorf(n, "\"handler\" is required")
	}
	if rtn.Handler, err = decodeBlock(handler); err != nil {
		return nil, err
	}
	return rtn, nil
}

var expressionKinds = map[string]bool{
	"id":        true,
	"undefined": true,
	"null":      true,
	"binary":    true,
	"unary":     true,
	"update":    true,
	"assign":    true,
	"fn":        true,
	"arrow":     true,
	"call":      true,
	"member":    true,
	"object":    true,
	"this":      true,
	"eval":      true,
}

func decodeExpression(n *yaml.Node) (ast.Expression, error) {
	if n.Kind == yaml.ScalarNode {
		return decodeLiteral(n)
	}
	kind, val, err := singleKey(n)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "id":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return nil, nodeErrorf(val, "identifier needs a name")
		}
		return ast.Ident(val.Value), nil
	case "undefined":
		return ast.Undefined(), nil
	case "null":
		return ast.Null(), nil
	case "this":
		return &ast.ThisExpression{}, nil
	case "binary":
		f, err := fields(val, "op", "left", "right")
		if err != nil {
			return nil, err
		}
		op, err := requiredString(val, f, "op")
		if err != nil {
			return nil, err
		}
		if !binaryOperators[op] {
			return nil, nodeErrorf(val, "unknown binary operator %q", op)
		}
		left, err := requiredExpression(val, f, "left")
		if err != nil {
			return nil, err
		}
		right, err := requiredExpression(val, f, "right")
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Operator: op, Left: left, Right: right}, nil
	case "unary":
		f, err := fields(val, "op", "arg")
		if err != nil {
			return nil, err
		}
		op, err := requiredString(val, f, "op")
		if err != nil {
			return nil, err
		}
		switch op {
		case "!", "-", "+", "typeof":
		default:
			return nil, nodeErrorf(val, "unknown unary operator %q", op)
		}
		arg, err := requiredExpression(val, f, "arg")
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operator: op, Operand: arg}, nil
	case "update":
		f, err := fields(val, "op", "name", "prefix")
		if err != nil {
			return nil, err
		}
		op, err := requiredString(val, f, "op")
		if err != nil {
			return nil, err
		}
		if op != "++" && op != "--" {
			return nil, nodeErrorf(val, "unknown update operator %q", op)
		}
		name, err := requiredString(val, f, "name")
		if err != nil {
			return nil, err
		}
		prefix, err := optionalBool(f, "prefix")
		if err != nil {
			return nil, err
		}
		return &ast.UpdateExpr{Operator: op, Name: name, Prefix: prefix}, nil
	case "assign":
		f, err := fields(val, "name", "op", "value")
		if err != nil {
			return nil, err
		}
		name, err := requiredString(val, f, "name")
		if err != nil {
			return nil, err
		}
		op := optionalString(f, "op")
		if op == "" {
			op = "="
		}
		switch op {
		case "=", "+=", "-=", "*=", "/=", "%=":
		default:
			return nil, nodeErrorf(val, "unknown assignment operator %q", op)
		}
		value, err := requiredExpression(val, f, "value")
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Operator: op, Name: name, Value: value}, nil
	case "fn", "arrow":
		f, err := fields(val, "name", "params", "body")
		if err != nil {
			return nil, err
		}
		params, err := stringList(f, "params")
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(f["body"])
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpression{
			Name:   optionalString(f, "name"),
			Params: params,
			Body:   body,
			Arrow:  kind == "arrow",
		}, nil
	case "call":
		f, err := fields(val, "callee", "args")
		if err != nil {
			return nil, err
		}
		callee, err := requiredExpression(val, f, "callee")
		if err != nil {
			return nil, err
		}
		rtn := &ast.CallExpression{Callee: callee, Arguments: []ast.Expression{}}
		if args, ok := f["args"]; ok && !isNull(args) {
			if args.Kind != yaml.SequenceNode {
				return nil, nodeErrorf(args, "\"args\" must be a list")
			}
			for _, a := range args.Content {
				e, err := decodeExpression(a)
				if err != nil {
					return nil, err
				}
				rtn.Arguments = append(rtn.Arguments, e)
			}
		}
		return rtn, nil
	case "member":
		f, err := fields(val, "object", "property")
		if err != nil {
			return nil, err
		}
		obj, err := requiredExpression(val, f, "object")
		if err != nil {
			return nil, err
		}
		prop, err := requiredString(val, f, "property")
		if err != nil {
			return nil, err
		}
		return &ast.MemberExpression{Object: obj, Property: prop}, nil
	case "object":
		rtn := &ast.ObjectLiteral{Properties: []ast.Property{}}
		if isNull(val) {
			return rtn, nil
		}
		if val.Kind != yaml.MappingNode {
			return nil, nodeErrorf(val, "\"object\" must be a mapping of properties")
		}
		for i := 0; i+1 < len(val.Content); i += 2 {
			e, err := decodeExpression(val.Content[i+1])
			if err != nil {
				return nil, err
			}
			rtn.Properties = append(rtn.Properties, ast.Property{Key: val.Content[i].Value, Value: e})
		}
		return rtn, nil
	case "eval":
		body, err := decodeStatements(val)
		if err != nil {
			return nil, err
		}
		return &ast.EvalExpression{Body: body}, nil
	}
	return nil, nodeErrorf(n, "unknown expression kind %q", kind)
}

var binaryOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "!=": true, "===": true, "!==": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"&&": true, "||": true, "??": true,
}

func requiredExpression(n *yaml.Node, f map[string]*yaml.Node, key string) (ast.Expression, error) {
	v, ok := f[key]
	if !ok {
		return nil, nodeErrorf(n, "%q is required", key)
	}
	return decodeExpression(v)
}

func decodeLiteral(n *yaml.Node) (ast.Expression, error) {
	switch n.Tag {
	case "!!null":
		return ast.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeErrorf(n, "invalid boolean %q", n.Value)
		}
		return ast.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, nodeErrorf(n, "invalid number %q", n.Value)
		}
		return ast.Number(f), nil
	}
	return ast.String(n.Value), nil
}
