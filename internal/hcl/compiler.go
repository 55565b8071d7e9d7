package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/viewbind/internal/expr"
)

// Compiler compiles expressions written in HCL native syntax, such as
// `"${title}!"`, `length(items) > 0` or `[for i in items: upper(i)]`.
type Compiler struct {
	functions map[string]function.Function
}

// New returns an HCL compiler wrapped in a compile cache.
func New() expr.Compiler {
	return expr.Cached(NewCompiler())
}

// NewCompiler creates an HCL compiler with a small standard function
// library.
func NewCompiler() *Compiler {
	return &Compiler{functions: map[string]function.Function{
		"abs":       stdlib.AbsoluteFunc,
		"coalesce":  stdlib.CoalesceFunc,
		"concat":    stdlib.ConcatFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"keys":      stdlib.KeysFunc,
		"length":    stdlib.LengthFunc,
		"lower":     stdlib.LowerFunc,
		"max":       stdlib.MaxFunc,
		"min":       stdlib.MinFunc,
		"split":     stdlib.SplitFunc,
		"strlen":    stdlib.StrlenFunc,
		"substr":    stdlib.SubstrFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"upper":     stdlib.UpperFunc,
		"values":    stdlib.ValuesFunc,
	}}
}

// Compile implements expr.Compiler. Calls to functions the compiler does
// not know are rejected here rather than at evaluation.
func (c *Compiler) Compile(source string) (expr.Program, error) {
	e, diags := hclsyntax.ParseExpression([]byte(source), "expression.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}
	for _, name := range functionNames(e) {
		if _, ok := c.functions[name]; !ok {
			return nil, fmt.Errorf("hcl: call to unknown function %q", name)
		}
	}
	return &program{expr: e, roots: rootNames(e), functions: c.functions}, nil
}

type program struct {
	expr      hclsyntax.Expression
	roots     []string
	functions map[string]function.Function
}

// Eval converts only the root names the expression references.
func (p *program) Eval(scope *expr.Scope) (any, error) {
	vars := make(map[string]cty.Value, len(p.roots))
	for _, name := range p.roots {
		v, ok := scope.Lookup(name)
		if !ok {
			continue
		}
		cv, err := ToCtyValue(v)
		if err != nil {
			return nil, fmt.Errorf("hcl: variable %q: %w", name, err)
		}
		vars[name] = cv
	}
	val, diags := p.expr.Value(&hcl.EvalContext{Variables: vars, Functions: p.functions})
	if diags.HasErrors() {
		return nil, diags
	}
	return FromCtyValue(val)
}

// rootNames lists the distinct root variable names of e, sorted.
func rootNames(e hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, traversal := range e.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// functionNames walks the syntax tree for function calls.
func functionNames(e hclsyntax.Expression) []string {
	seen := make(map[string]struct{})
	hclsyntax.VisitAll(e, func(n hclsyntax.Node) hcl.Diagnostics {
		if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			seen[call.Name] = struct{}{}
		}
		return nil
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
