package jsexpr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/vk/viewbind/internal/expr"
)

var (
	// ErrReference is returned when an identifier is not defined in scope.
	ErrReference = errors.New("jsexpr: reference error")
	// ErrType is returned for operations on values of the wrong kind, such
	// as reading a member of null or calling a non-function.
	ErrType = errors.New("jsexpr: type error")
)

type node interface {
	eval(scope *expr.Scope) (any, error)
}

type literalNode struct{ value any }

func (n *literalNode) eval(*expr.Scope) (any, error) { return n.value, nil }

type identNode struct{ name string }

func (n *identNode) eval(scope *expr.Scope) (any, error) {
	v, ok := scope.Lookup(n.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not defined", ErrReference, n.name)
	}
	return v, nil
}

type memberNode struct {
	object   node
	name     string
	optional bool
}

func (n *memberNode) eval(scope *expr.Scope) (any, error) {
	obj, err := n.object.eval(scope)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		if n.optional {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: cannot read property %q of null", ErrType, n.name)
	}
	v, _ := expr.Field(obj, n.name)
	return v, nil
}

type indexNode struct {
	object node
	key    node
}

func (n *indexNode) eval(scope *expr.Scope) (any, error) {
	obj, err := n.object.eval(scope)
	if err != nil {
		return nil, err
	}
	key, err := n.key.eval(scope)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: cannot read property %q of null", ErrType, expr.ToString(key))
	}
	v, _ := expr.Index(obj, key)
	return v, nil
}

type callNode struct {
	callee node
	args   []node
}

func (n *callNode) eval(scope *expr.Scope) (any, error) {
	fn, err := n.callee.eval(scope)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(n.args))
	for i, a := range n.args {
		if args[i], err = a.eval(scope); err != nil {
			return nil, err
		}
	}
	return call(fn, args)
}

// call invokes a Go function value with loosely typed arguments. Numbers
// are converted to the parameter kind; a trailing error result is returned
// as the call error.
func call(fn any, args []any) (any, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%w: value is not a function", ErrType)
	}
	t := rv.Type()
	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < t.NumIn(); i++ {
		if t.IsVariadic() && i == t.NumIn()-1 {
			elem := t.In(i).Elem()
			for _, a := range args[min(i, len(args)):] {
				v, err := convertArg(a, elem)
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			break
		}
		var a any
		if i < len(args) {
			a = args[i]
		}
		v, err := convertArg(a, t.In(i))
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	out := rv.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type() == reflect.TypeFor[error]() {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
		if len(out) == 0 {
			return nil, nil
		}
	}
	return out[0].Interface(), nil
}

func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if f, ok := expr.ToFloat(a); ok {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return reflect.ValueOf(f).Convert(t), nil
		}
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(expr.ToString(a)).Convert(t), nil
	}
	if v.Type().ConvertibleTo(t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrType, a, t)
}

type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) eval(scope *expr.Scope) (any, error) {
	v, err := n.operand.eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !expr.Truthy(v), nil
	case "-":
		return -toNumber(v), nil
	}
	return toNumber(v), nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) eval(scope *expr.Scope) (any, error) {
	l, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "+":
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return expr.ToString(l) + expr.ToString(r), nil
		}
		return toNumber(l) + toNumber(r), nil
	case "-":
		return toNumber(l) - toNumber(r), nil
	case "*":
		return toNumber(l) * toNumber(r), nil
	case "/":
		return toNumber(l) / toNumber(r), nil
	case "%":
		return math.Mod(toNumber(l), toNumber(r)), nil
	case "===":
		return strictEqual(l, r), nil
	case "!==":
		return !strictEqual(l, r), nil
	case "==":
		return looseEqual(l, r), nil
	case "!=":
		return !looseEqual(l, r), nil
	}
	return compare(n.op, l, r), nil
}

type logicalNode struct {
	op          string
	left, right node
}

func (n *logicalNode) eval(scope *expr.Scope) (any, error) {
	l, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "&&":
		if !expr.Truthy(l) {
			return l, nil
		}
	case "||":
		if expr.Truthy(l) {
			return l, nil
		}
	case "??":
		if l != nil {
			return l, nil
		}
	}
	return n.right.eval(scope)
}

type conditionalNode struct {
	cond, then, otherwise node
}

func (n *conditionalNode) eval(scope *expr.Scope) (any, error) {
	c, err := n.cond.eval(scope)
	if err != nil {
		return nil, err
	}
	if expr.Truthy(c) {
		return n.then.eval(scope)
	}
	return n.otherwise.eval(scope)
}

type arrayNode struct{ items []node }

func (n *arrayNode) eval(scope *expr.Scope) (any, error) {
	out := make([]any, len(n.items))
	for i, item := range n.items {
		v, err := item.eval(scope)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type templateNode struct{ parts []node }

func (n *templateNode) eval(scope *expr.Scope) (any, error) {
	var sb strings.Builder
	for _, p := range n.parts {
		v, err := p.eval(scope)
		if err != nil {
			return nil, err
		}
		sb.WriteString(expr.ToString(v))
	}
	return sb.String(), nil
}

func toNumber(v any) float64 {
	if f, ok := expr.ToFloat(v); ok {
		return f
	}
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

func strictEqual(l, r any) bool {
	if lf, ok := expr.ToFloat(l); ok {
		rf, ok := expr.ToFloat(r)
		return ok && lf == rf
	}
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	lt, rt := reflect.TypeOf(l), reflect.TypeOf(r)
	if lt != rt || !lt.Comparable() {
		return false
	}
	return l == r
}

func looseEqual(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if strictEqual(l, r) {
		return true
	}
	_, lb := l.(bool)
	_, rb := r.(bool)
	_, ls := l.(string)
	_, rs := r.(string)
	_, lnum := expr.ToFloat(l)
	_, rnum := expr.ToFloat(r)
	if lb || rb || (ls && rnum) || (lnum && rs) {
		return toNumber(l) == toNumber(r)
	}
	return false
}

func compare(op string, l, r any) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		}
		return ls >= rs
	}
	lf, rf := toNumber(l), toNumber(r)
	switch op {
	case "<":
		return lf < rf
	case "<=":
		return lf <= rf
	case ">":
		return lf > rf
	}
	return lf >= rf
}
