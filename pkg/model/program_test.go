package model

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"

	"github.com/nektos/stackscope/pkg/ast"
)

func TestReadProgram(t *testing.T) {
	yaml := `
apiVersion: "1.0"
name: shapes
thisMode: global
body:
  - var: a
  - let: {name: b, init: 1}
  - const: {name: c, init: "x"}
  - function: {name: f, params: [x, y], body: [{return: {binary: {op: "+", left: {id: x}, right: {id: y}}}}]}
  - if:
      test: true
      then: [{print: {undefined: {}}}]
      else: {print: null}
  - try:
      block: [{throw: "boom"}]
      catch: e
      handler: [{print: {member: {object: {id: e}, property: message}}}]
  - assign: {name: a, op: "+=", value: 2}
  - expr: {update: {op: "--", name: a, prefix: true}}
  - print: {call: {callee: {member: {object: {object: {k: 1.5}}, property: k}}, args: [1, false]}}
  - return: ~
`
	p, err := ReadProgram(strings.NewReader(yaml))
	assert.NilError(t, err)
	assert.Equal(t, "shapes", p.Name)
	assert.Equal(t, "global", p.ThisMode)
	assert.Check(t, is.Len(p.Body, 10))

	assert.DeepEqual(t, &ast.VariableDeclaration{Kind: ast.DeclVar, Name: "a"}, p.Body[0])
	assert.DeepEqual(t, &ast.VariableDeclaration{Kind: ast.DeclLet, Name: "b", Init: ast.Number(1)}, p.Body[1])
	assert.DeepEqual(t, &ast.VariableDeclaration{Kind: ast.DeclConst, Name: "c", Init: ast.String("x")}, p.Body[2])

	fn, ok := p.Body[3].(*ast.FunctionDeclaration)
	assert.Assert(t, ok)
	assert.DeepEqual(t, []string{"x", "y"}, fn.Params)

	ifStmt, ok := p.Body[4].(*ast.If)
	assert.Assert(t, ok)
	assert.DeepEqual(t, &ast.PrintStatement{Value: ast.Null()}, ifStmt.Alternate)

	try, ok := p.Body[5].(*ast.Try)
	assert.Assert(t, ok)
	assert.Equal(t, "e", try.Param)

	assert.DeepEqual(t, &ast.ExpressionStatement{Expression: &ast.Assignment{Operator: "+=", Name: "a", Value: ast.Number(2)}}, p.Body[6])
	assert.DeepEqual(t, &ast.ReturnStatement{}, p.Body[9])
}

func TestReadProgramSource(t *testing.T) {
	p, err := ReadProgram(strings.NewReader(`
apiVersion: "1.0"
body:
  - var: a
  - print: {id: a}
  - assign: {name: a, value: 10}
`))
	assert.NilError(t, err)
	assert.Equal(t, "var a;\nprint(a);\na = 10;", p.Source())
}

func TestReadProgramErrors(t *testing.T) {
	table := []struct {
		name string
		yaml string
		want string
	}{
		{"missing version", `body: []`, "apiVersion is required"},
		{"future version", "apiVersion: \"2.0\"\nbody: []", "is not supported"},
		{"bad version", "apiVersion: banana\nbody: []", "invalid apiVersion"},
		{"unknown statement", "apiVersion: \"1.0\"\nbody: [{while: {}}]", `unknown statement kind "while"`},
		{"unknown expression", "apiVersion: \"1.0\"\nbody: [{print: {new: {}}}]", `unknown expression kind "new"`},
		{"const without init", "apiVersion: \"1.0\"\nbody: [{const: c}]", "missing initializer"},
		{"function without name", "apiVersion: \"1.0\"\nbody: [{function: {body: []}}]", `"name" is required`},
		{"unknown field", "apiVersion: \"1.0\"\nbody: [{let: {name: a, value: 1}}]", `unknown field "value"`},
		{"bad operator", "apiVersion: \"1.0\"\nbody: [{print: {binary: {op: \"<<\", left: 1, right: 2}}}]", "unknown binary operator"},
		{"bad this mode", "apiVersion: \"1.0\"\nthisMode: window\nbody: []", "thisMode must be"},
		{"two keys", "apiVersion: \"1.0\"\nbody: [{var: a, let: b}]", "single-key mapping"},
		{"empty", "", "empty program file"},
	}

	for _, tt := range table {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadProgram(strings.NewReader(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestDecodeErrorPosition(t *testing.T) {
	_, err := ReadProgram(strings.NewReader("apiVersion: \"1.0\"\nbody:\n  - var: a\n  - loop: {}\n"))
	assert.ErrorContains(t, err, "line 4")
}

func TestLoadProgramsDirectory(t *testing.T) {
	programs, err := LoadPrograms("testdata")
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{
		"closure-counter",
		"const-reassign",
		"greet",
		"overflow",
		"tdz",
		"var-hoisting",
	}, ProgramNames(programs))
	assert.Equal(t, 1000, programs[3].MaxDepth)
}

func TestLoadProgramsFile(t *testing.T) {
	dir := fs.NewDir(t, "programs",
		fs.WithFile("unnamed.yaml", "apiVersion: \"1.0\"\nbody: [{print: 1}]\n"),
		fs.WithFile("notes.txt", "not a program"),
	)

	programs, err := LoadPrograms(dir.Join("unnamed.yaml"))
	assert.NilError(t, err)
	assert.Assert(t, is.Len(programs, 1))
	assert.Equal(t, "unnamed", programs[0].Name)
	assert.Equal(t, dir.Join("unnamed.yaml"), programs[0].File)

	programs, err = LoadPrograms(dir.Path())
	assert.NilError(t, err)
	assert.Assert(t, is.Len(programs, 1))
}

func TestLoadProgramsDuplicateName(t *testing.T) {
	dir := fs.NewDir(t, "programs",
		fs.WithFile("a.yml", "apiVersion: \"1.0\"\nname: same\nbody: []\n"),
		fs.WithFile("b.yml", "apiVersion: \"1.0\"\nname: same\nbody: []\n"),
	)
	_, err := LoadPrograms(dir.Path())
	assert.ErrorContains(t, err, `program "same" is defined in both`)
}

func TestLoadProgramsInvalidFile(t *testing.T) {
	dir := fs.NewDir(t, "programs",
		fs.WithFile("bad.yml", "apiVersion: \"1.0\"\nbody: [{const: c}]\n"),
	)
	_, err := LoadPrograms(dir.Path())
	assert.ErrorContains(t, err, "bad.yml")
}

func TestFilterPrograms(t *testing.T) {
	programs, err := LoadPrograms("testdata")
	assert.NilError(t, err)

	filtered, err := FilterPrograms(programs, "tdz", "greet")
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"greet", "tdz"}, ProgramNames(filtered))

	all, err := FilterPrograms(programs)
	assert.NilError(t, err)
	assert.Equal(t, len(programs), len(all))

	_, err = FilterPrograms(programs, "nope")
	assert.ErrorContains(t, err, `no program named "nope"`)
}
