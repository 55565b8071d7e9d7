// Package risorexpr compiles expressions written in Risor. Sources are
// syntax-checked when compiled and run by a fresh VM on every evaluation,
// with every name visible in scope installed as a global.
package risorexpr

import (
	"context"
	"fmt"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"

	"github.com/vk/viewbind/internal/expr"
)

// Compiler compiles Risor expressions such as `len(items) > 0` or
// `strings.to_upper(title)`.
type Compiler struct{}

// New returns a Risor compiler wrapped in a compile cache.
func New() expr.Compiler {
	return expr.Cached(Compiler{})
}

// Compile implements expr.Compiler.
func (Compiler) Compile(source string) (expr.Program, error) {
	if _, err := parser.Parse(context.Background(), source); err != nil {
		return nil, fmt.Errorf("risorexpr: %w", err)
	}
	return &program{source: source}, nil
}

type program struct {
	source string
}

// Eval runs the source with the flattened scope as globals. Values Risor
// cannot represent, such as Go funcs or channels, are not installed.
func (p *program) Eval(scope *expr.Scope) (any, error) {
	var opts []risor.Option
	for name, v := range scope.Vars() {
		nv := expr.Normalize(v)
		if !plain(nv) {
			continue
		}
		opts = append(opts, risor.WithGlobal(name, nv))
	}
	result, err := risor.Eval(context.Background(), p.source, opts...)
	if err != nil {
		return nil, fmt.Errorf("risorexpr: %w", err)
	}
	if errObj, ok := result.(*object.Error); ok {
		return nil, fmt.Errorf("risorexpr: %s", errObj.Inspect())
	}
	return expr.Normalize(result.Interface()), nil
}

// plain reports whether v is made of maps, slices and scalars only.
func plain(v any) bool {
	switch x := v.(type) {
	case nil, string, bool, int, float64:
		return true
	case []any:
		for _, e := range x {
			if !plain(e) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, e := range x {
			if !plain(e) {
				return false
			}
		}
		return true
	}
	return false
}
