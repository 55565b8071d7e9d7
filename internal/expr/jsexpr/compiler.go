// Package jsexpr is the default expression grammar: a small, side-effect
// free subset of JavaScript expressions.
//
// Supported: number, string, template and array literals; true, false,
// null and undefined; identifiers; member access with . ?. and [];
// calls of Go function values found in scope; the unary operators ! - +;
// arithmetic; comparison; strict and loose equality; && || ?? and the
// conditional operator. Assignments, object literals and function
// literals are not part of the grammar.
package jsexpr

import "github.com/vk/viewbind/internal/expr"

// Compiler compiles expressions of the default grammar.
type Compiler struct{}

// New returns the default compiler wrapped in a compile cache.
func New() expr.Compiler {
	return expr.Cached(Compiler{})
}

// Compile implements expr.Compiler.
func (Compiler) Compile(source string) (expr.Program, error) {
	root, err := parse(source)
	if err != nil {
		return nil, err
	}
	return &program{root: root, source: source}, nil
}

type program struct {
	root   node
	source string
}

func (p *program) Eval(scope *expr.Scope) (any, error) {
	return p.root.eval(scope)
}

func (p *program) String() string { return p.source }
