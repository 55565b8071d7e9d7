// Package expr defines the contract between the binder and the expression
// language: a Compiler turns source text into a Program, and the helpers in
// this package wrap Programs into Evaluators that never fail.
//
// Any Compiler satisfying the contract can be swapped in without touching
// parsing or reconciliation. The default grammar lives in package jsexpr;
// HCL and Risor flavoured compilers live in their own packages.
package expr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoSpan is returned by Split when text contains no {{ }} span.
var ErrNoSpan = errors.New("expr: no expression span")

// Program is a compiled expression.
type Program interface {
	Eval(scope *Scope) (any, error)
}

// Compiler compiles a single expression (without delimiters).
type Compiler interface {
	Compile(source string) (Program, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(source string) (Program, error)

// Compile implements Compiler.
func (f CompilerFunc) Compile(source string) (Program, error) { return f(source) }

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(scope *Scope) (any, error)

// Eval implements Program.
func (f ProgramFunc) Eval(scope *Scope) (any, error) { return f(scope) }

// Evaluator is a compiled, failure-free expression. Failures surface as "".
type Evaluator func(scope *Scope) any

var spanPattern = regexp.MustCompile(`\{\{((?:[^}])+)\}\}`)

// Part is one piece of a text split around {{ }} spans.
type Part struct {
	Text string
	Expr bool
}

// Split cuts text into literal and expression parts, in source order.
func Split(text string) ([]Part, error) {
	matches := spanPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, ErrNoSpan
	}
	parts := make([]Part, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			parts = append(parts, Part{Text: text[last:m[0]]})
		}
		parts = append(parts, Part{Text: text[m[2]:m[3]], Expr: true})
		last = m[1]
	}
	if last < len(text) {
		parts = append(parts, Part{Text: text[last:]})
	}
	return parts, nil
}

// Compile compiles a text that mixes literals and {{ }} spans. It returns nil
// when the text has no span or when any span fails to compile.
func Compile(c Compiler, text string) Evaluator {
	parts, err := Split(text)
	if err != nil {
		return nil
	}
	programs := make([]Program, len(parts))
	for i, p := range parts {
		if !p.Expr {
			continue
		}
		prog, err := c.Compile(strings.TrimSpace(p.Text))
		if err != nil {
			return nil
		}
		programs[i] = prog
	}
	return func(scope *Scope) any {
		var sb strings.Builder
		for i, p := range parts {
			if !p.Expr {
				sb.WriteString(p.Text)
				continue
			}
			v, err := run(programs[i], scope)
			if err != nil {
				return ""
			}
			sb.WriteString(ToString(v))
		}
		return sb.String()
	}
}

// CompileValue compiles a standalone expression whose value keeps its type.
// It returns nil when source does not compile.
func CompileValue(c Compiler, source string) Evaluator {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil
	}
	prog, err := c.Compile(source)
	if err != nil {
		return nil
	}
	return func(scope *Scope) any {
		v, err := run(prog, scope)
		if err != nil || v == nil {
			return ""
		}
		return v
	}
}

// run evaluates prog and turns panics into errors.
func run(prog Program, scope *Scope) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("expr: evaluation panicked: %v", r)
		}
	}()
	return prog.Eval(scope)
}
