package expr

// Lookuper is implemented by context values that resolve names themselves,
// such as a reactive model.
type Lookuper interface {
	Lookup(name string) (any, bool)
}

// Scope is the lexically chained environment expressions run against.
// A root scope wraps the data value; a nested scope adds locals (loop
// variables) and falls through to its parent for everything else.
type Scope struct {
	parent *Scope
	data   any
	locals map[string]any
}

// NewScope creates a root scope over data.
func NewScope(data any) *Scope {
	return &Scope{data: data}
}

// With returns a child scope defining locals on top of s.
func (s *Scope) With(locals map[string]any) *Scope {
	return &Scope{parent: s, locals: locals}
}

// Data returns the value wrapped by the nearest root scope.
func (s *Scope) Data() any {
	for ; s != nil; s = s.parent {
		if s.data != nil {
			return s.data
		}
	}
	return nil
}

// Lookup resolves name through locals, then data, then the parent chain.
func (s *Scope) Lookup(name string) (any, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.locals[name]; ok {
			return v, true
		}
		if s.data != nil {
			if v, ok := Field(s.data, name); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Vars flattens every visible name into a map, inner definitions winning.
// Compilers backed by engines that need all globals up front use it.
func (s *Scope) Vars() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	vars := s.parent.Vars()
	if s.data != nil {
		for _, k := range Keys(s.data) {
			if v, ok := Field(s.data, k); ok {
				vars[k] = v
			}
		}
	}
	for k, v := range s.locals {
		vars[k] = v
	}
	return vars
}
