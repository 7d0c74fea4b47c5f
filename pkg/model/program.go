package model

import (
	"io"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nektos/stackscope/pkg/ast"
)

// SupportedAPIVersions is the range of program file versions this build reads
const SupportedAPIVersions = ">= 1.0, < 2.0"

// Program is one program file
type Program struct {
	File        string    `yaml:"-"`
	APIVersion  string    `yaml:"apiVersion"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	MaxDepth    int       `yaml:"maxDepth"`
	ThisMode    string    `yaml:"thisMode"`
	RawBody     yaml.Node `yaml:"body"`

	Body []ast.Statement `yaml:"-"`
}

// AST returns the program tree handed to the interpreter
func (p *Program) AST() *ast.Program {
	return &ast.Program{
		Name: p.Name,
		Body: p.Body,
	}
}

// Source renders the program as script text
func (p *Program) Source() string {
	return ast.Print(p.AST())
}

// ReadProgram decodes and validates one program from YAML or JSON
func ReadProgram(in io.Reader) (*Program, error) {
	p := new(Program)
	if err := yaml.NewDecoder(in).Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty program file")
		}
		return nil, errors.Wrap(err, "unable to decode program")
	}
	if err := checkAPIVersion(p.APIVersion); err != nil {
		return nil, err
	}
	switch p.ThisMode {
	case "", "undefined", "global":
	default:
		return nil, errors.Errorf("thisMode must be 'undefined' or 'global', got %q", p.ThisMode)
	}
	if p.MaxDepth < 0 {
		return nil, errors.Errorf("maxDepth must not be negative, got %d", p.MaxDepth)
	}
	body, err := decodeStatements(&p.RawBody)
	if err != nil {
		return nil, errors.Wrapf(err, "program %q", p.Name)
	}
	p.Body = body
	return p, nil
}

func checkAPIVersion(version string) error {
	if version == "" {
		return errors.New("apiVersion is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid apiVersion %q", version)
	}
	constraint, err := semver.NewConstraint(SupportedAPIVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return errors.Errorf("apiVersion %s is not supported (want %s)", version, SupportedAPIVersions)
	}
	return nil
}
