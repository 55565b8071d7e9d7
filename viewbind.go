// Package viewbind binds HTML trees to data.
//
// Text and attribute values may contain {{ expression }} spans, and
// elements may carry the {{for}}, {{if}}, {{elseif}} and {{else}}
// directives. Attach compiles the tree once; every refresh then computes
// all changes before applying any of them, and only touches the nodes whose
// value changed.
//
//	body, _ := viewbind.ParseHTML(`<ul><li {{for}}="item of items">{{ item }}</li></ul>`)
//	h, err := viewbind.Attach(ctx, body, viewbind.WithData(map[string]any{"items": []any{"a", "b"}}))
//	...
//	h.Model().Append("items", "c")
//	h.Done().Wait(ctx)
package viewbind

import (
	"context"

	"golang.org/x/net/html"

	"github.com/vk/viewbind/internal/binder"
	"github.com/vk/viewbind/internal/dom"
	"github.com/vk/viewbind/internal/engine"
	"github.com/vk/viewbind/internal/expr"
	"github.com/vk/viewbind/internal/expr/jsexpr"
	"github.com/vk/viewbind/internal/hcl"
	"github.com/vk/viewbind/internal/model"
	"github.com/vk/viewbind/internal/risorexpr"
	"github.com/vk/viewbind/internal/scheduler"
)

type (
	// Handle is an attached tree.
	Handle = engine.Handle
	// Option configures Attach.
	Option = engine.Option
	// Signal resolves when a scheduled refresh finishes.
	Signal = scheduler.Signal
	// Model is the reactive data behind a Handle.
	Model = model.Model
	// View is a path-relative handle on a Model.
	View = model.View
	// Compiler turns expression sources into Programs.
	Compiler = expr.Compiler
	// Program is a compiled expression.
	Program = expr.Program
	// Scope is the environment expressions run against.
	Scope = expr.Scope
	// Sequence is a lazily produced {{for}} source.
	Sequence = binder.Sequence
)

// Directive attribute names.
const (
	DirectiveFor    = binder.DirectiveFor
	DirectiveIf     = binder.DirectiveIf
	DirectiveElseIf = binder.DirectiveElseIf
	DirectiveElse   = binder.DirectiveElse
)

// Errors.
var (
	ErrNotIterable = binder.ErrNotIterable
	ErrDetached    = dom.ErrDetached
	ErrPath        = model.ErrPath
)

// Options.
var (
	WithData     = engine.WithData
	WithCompiler = engine.WithCompiler
	WithLogger   = engine.WithLogger
	WithDelay    = engine.WithDelay
)

// Attach compiles root and, with WithData, renders it once.
func Attach(ctx context.Context, root *html.Node, opts ...Option) (*Handle, error) {
	return engine.Attach(ctx, root, opts...)
}

// ParseHTML parses a fragment into a detached <body> element.
func ParseHTML(markup string) (*html.Node, error) {
	return dom.ParseBody(markup)
}

// Render serializes n.
func Render(n *html.Node) (string, error) {
	return dom.Render(n)
}

// Outline describes the children of n compactly, skipping blank text and
// <template> contents.
func Outline(n *html.Node) string {
	return dom.Outline(n)
}

// JSCompiler returns the default compiler of JavaScript-like expressions.
func JSCompiler() Compiler { return jsexpr.New() }

// HCLCompiler returns a compiler of HCL expressions.
func HCLCompiler() Compiler { return hcl.New() }

// RisorCompiler returns a compiler of Risor expressions.
func RisorCompiler() Compiler { return risorexpr.New() }
