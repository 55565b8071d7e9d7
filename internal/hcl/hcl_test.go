package hcl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/viewbind/internal/expr"
	"github.com/vk/viewbind/internal/hcl"
)

func evalHCL(t *testing.T, source string, data any) (any, error) {
	t.Helper()
	prog, err := hcl.NewCompiler().Compile(source)
	require.NoError(t, err, "compile %q", source)
	return prog.Eval(expr.NewScope(data))
}

func TestCompiler_Evaluate(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}
	data := map[string]any{
		"title": "Hello",
		"n":     3,
		"items": []string{"a", "b"},
		"user":  &user{Name: "ada"},
		"none":  nil,
	}

	tests := []struct {
		source string
		want   any
	}{
		{`title`, "Hello"},
		{`"Title : ${title}"`, "Title : Hello"},
		{`n + 1`, 4},
		{`n / 2`, 1.5},
		{`items[1]`, "b"},
		{`length(items)`, 2},
		{`upper(title)`, "HELLO"},
		{`user.name`, "ada"},
		{`n > 2 ? "many" : "few"`, "many"},
		{`n == 3`, true},
		{`[for i in items: upper(i)]`, []any{"A", "B"}},
		{`{ a = n }`, map[string]any{"a": 3}},
		{`[]`, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evalHCL(t, tt.source, data)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown variable fails at evaluation", func(t *testing.T) {
		_, err := evalHCL(t, `missing`, data)
		require.Error(t, err)
	})

	t.Run("loop locals shadow data", func(t *testing.T) {
		prog, err := hcl.NewCompiler().Compile(`"${index}:${item}"`)
		require.NoError(t, err)
		scope := expr.NewScope(data).With(map[string]any{"item": "x", "index": 0})
		got, err := prog.Eval(scope)
		require.NoError(t, err)
		require.Equal(t, "0:x", got)
	})
}

func TestCompiler_CompileErrors(t *testing.T) {
	c := hcl.NewCompiler()
	for _, source := range []string{`(`, `a +`, `nosuchfn(1)`, `a b`} {
		_, err := c.Compile(source)
		require.Error(t, err, source)
	}
}

func TestCompiler_ThroughEvaluators(t *testing.T) {
	c := hcl.New()
	scope := expr.NewScope(map[string]any{"title": "Hello World !"})

	// --- Composite text: the span body is an HCL expression ---
	require.Equal(t, "Title : Hello World !", expr.Compile(c, "Title : {{ title }}")(scope))
	require.Equal(t, "", expr.Compile(c, "{{ missing }}")(scope))
	require.Nil(t, expr.Compile(c, "{{ ( }}"))

	// --- Standalone values keep their type ---
	require.Equal(t, true, expr.CompileValue(c, `strlen(title) > 3`)(scope))
}

func TestCtyRoundTrip(t *testing.T) {
	in := map[string]any{
		"s":    "x",
		"n":    2,
		"f":    0.25,
		"b":    true,
		"list": []any{1, "two"},
		"obj":  map[string]any{"k": nil},
	}
	cv, err := hcl.ToCtyValue(in)
	require.NoError(t, err)
	require.True(t, cv.Type().IsObjectType())

	out, err := hcl.FromCtyValue(cv)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = hcl.FromCtyValue(cty.UnknownVal(cty.String))
	require.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.hcl")
	content := `
title = "Hello World !"
items = [
  { text = "first" },
  { text = "second", done = true },
]
count = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	data, err := hcl.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"title": "Hello World !",
		"items": []any{
			map[string]any{"text": "first"},
			map[string]any{"text": "second", "done": true},
		},
		"count": 2,
	}, data)

	// --- Blocks are not data ---
	bad := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte("block {\n}\n"), 0o644))
	_, err = hcl.NewLoader().Load(context.Background(), bad)
	require.Error(t, err)

	_, err = hcl.NewLoader().Load(context.Background(), filepath.Join(dir, "missing.hcl"))
	require.Error(t, err)
}
