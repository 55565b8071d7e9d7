package model

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ErrPath is returned for paths that do not parse or do not resolve.
var ErrPath = errors.New("model: invalid path")

// step is one path segment: a string key or an int index.
type step any

// parsePath parses an HCL traversal such as `items[0].done`. A path that
// starts with an index, like `[2].text`, is relative to a list.
func parsePath(path string) ([]step, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	src, rooted := path, true
	if strings.HasPrefix(path, "[") {
		src, rooted = "_"+path, false
	}
	traversal, diags := hclsyntax.ParseTraversalAbs([]byte(src), "path", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w %q: %s", ErrPath, path, diags.Error())
	}

	steps := make([]step, 0, len(traversal))
	for _, t := range traversal {
		switch t := t.(type) {
		case hcl.TraverseRoot:
			if rooted {
				steps = append(steps, t.Name)
			}
		case hcl.TraverseAttr:
			steps = append(steps, t.Name)
		case hcl.TraverseIndex:
			s, err := indexStep(t.Key)
			if err != nil {
				return nil, fmt.Errorf("%w %q: %w", ErrPath, path, err)
			}
			steps = append(steps, s)
		default:
			return nil, fmt.Errorf("%w %q: unsupported traversal step", ErrPath, path)
		}
	}
	return steps, nil
}

func indexStep(key cty.Value) (step, error) {
	switch {
	case key.IsNull() || !key.IsKnown():
		return nil, errors.New("index must be a known value")
	case key.Type().Equals(cty.String):
		return key.AsString(), nil
	case key.Type().Equals(cty.Number):
		bf := key.AsBigFloat()
		i, acc := bf.Int64()
		if !bf.IsInt() || acc != big.Exact || i < 0 {
			return nil, fmt.Errorf("index %s is not a non-negative integer", bf.String())
		}
		return int(i), nil
	}
	return nil, fmt.Errorf("index of type %s is not supported", key.Type().FriendlyName())
}

func formatPath(steps []step) string {
	var sb strings.Builder
	for i, s := range steps {
		switch s := s.(type) {
		case int:
			fmt.Fprintf(&sb, "[%d]", s)
		case string:
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(s)
		}
	}
	return sb.String()
}
