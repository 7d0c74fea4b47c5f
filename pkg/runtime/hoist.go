package runtime

import (
	"github.com/nektos/stackscope/pkg/ast"
)

// hoist registers the declarations of body before any of it runs.
//
// For a function, global or eval body (topLevel) every var found in the
// body, nested blocks included but nested functions excluded, goes to the
// variable environment as undefined. Function names declared in nested
// blocks are reserved there too so the block can assign them later, unless
// a let or const of the body already owns the name.
//
// For every body, top level function declarations go to the variable
// environment fully initialized with lexEnv as their closure, and let and
// const go to lexEnv in the dead zone.
func (ex *execution) hoist(ec *ExecutionContext, body []ast.Statement, lexEnv *Environment, topLevel bool) error {
	if lexEnv.hoisted {
		return ex.raise(newError(SyntaxConflict, "", "declarations of %s scope already hoisted", lexEnv.Kind))
	}
	lexEnv.hoisted = true

	if topLevel {
		lexical := lexicalNames(body)
		for _, n := range varNames(body, false) {
			if n.blockFunction && lexical[n.name] {
				continue
			}
			if err := ex.declare(ec, ec.VariableEnvironment, n.name, BindVar, Initialized, Undefined); err != nil {
				return err
			}
		}
	}

	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			fn := &Function{
				Name:    s.Name,
				Params:  s.Params,
				Body:    s.Body,
				Closure: lexEnv,
			}
			if topLevel && ec.Kind != ContextEval {
				if err := ex.declare(ec, ec.VariableEnvironment, s.Name, BindFunction, Initialized, fn); err != nil {
					return err
				}
				continue
			}
			// eval and block functions redefine whatever the variable
			// environment already holds under that name
			if err := ex.hoistBlockFunction(ec, lexEnv, s.Name, fn, topLevel); err != nil {
				return err
			}
		case *ast.VariableDeclaration:
			if s.Kind.Lexical() {
				if err := ex.declare(ec, lexEnv, s.Name, bindingKindOf(s.Kind), Uninitialized, nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// hoistBlockFunction assigns a block level function to the slot reserved
// in the variable environment, redefining any earlier value. When a let or
// const between the block and the variable environment already owns the
// name, the function only lives in the block. Top level eval functions
// always target the variable environment.
func (ex *execution) hoistBlockFunction(ec *ExecutionContext, lexEnv *Environment, name string, fn *Function, topLevel bool) error {
	if !topLevel && lexEnv != ec.VariableEnvironment {
		for env := lexEnv.Outer(); env != nil; env = env.Outer() {
			if b, ok := env.Lookup(name); ok && b.Kind.Lexical() {
				return ex.declare(ec, lexEnv, name, BindFunction, Initialized, fn)
			}
			if env == ec.VariableEnvironment {
				break
			}
		}
	}

	b, ok := ec.VariableEnvironment.Lookup(name)
	if !ok {
		return ex.declare(ec, ec.VariableEnvironment, name, BindFunction, Initialized, fn)
	}
	if b.Kind.Lexical() {
		return ex.raise(redeclared(name))
	}
	b.Kind = BindFunction
	b.State = Initialized
	b.Value = fn
	ex.recordBinding(EventHoist, name, BindFunction, fn, nil)
	return nil
}

func (ex *execution) declare(ec *ExecutionContext, env *Environment, name string, kind BindingKind, state BindingState, value Value) error {
	b, err := env.Declare(name, kind, state, value)
	if err != nil {
		ex.recordBinding(EventHoist, name, kind, nil, err)
		return ex.raise(err)
	}
	ex.recordBinding(EventHoist, name, b.Kind, b.Value, nil)
	ex.logger.Debugf("hoist %s %s into %s scope of %s", kind, name, env.Kind, ec)
	return nil
}

type hoistedName struct {
	name          string
	blockFunction bool
}

// varNames collects var declarations and, when inBlock, block function
// names, without descending into functions
func varNames(body []ast.Statement, inBlock bool) []hoistedName {
	var names []hoistedName
	for _, stmt := range body {
		names = append(names, varNamesOf(stmt, inBlock)...)
	}
	return names
}

func varNamesOf(stmt ast.Statement, inBlock bool) []hoistedName {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.DeclVar {
			return []hoistedName{{name: s.Name}}
		}
	case *ast.FunctionDeclaration:
		if inBlock {
			return []hoistedName{{name: s.Name, blockFunction: true}}
		}
	case *ast.Block:
		return varNames(s.Body, true)
	case *ast.If:
		names := varNamesOf(s.Consequent, true)
		if s.Alternate != nil {
			names = append(names, varNamesOf(s.Alternate, true)...)
		}
		return names
	case *ast.Try:
		var names []hoistedName
		if s.Block != nil {
			names = append(names, varNames(s.Block.Body, true)...)
		}
		if s.Handler != nil {
			names = append(names, varNames(s.Handler.Body, true)...)
		}
		return names
	}
	return nil
}

// lexicalNames lists the let and const names declared directly in body
func lexicalNames(body []ast.Statement) map[string]bool {
	names := map[string]bool{}
	for _, stmt := range body {
		if s, ok := stmt.(*ast.VariableDeclaration); ok && s.Kind.Lexical() {
			names[s.Name] = true
		}
	}
	return names
}
