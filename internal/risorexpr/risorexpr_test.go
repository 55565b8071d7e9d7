package risorexpr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/viewbind/internal/expr"
	"github.com/vk/viewbind/internal/risorexpr"
)

func TestCompiler_Evaluate(t *testing.T) {
	data := map[string]any{
		"title": "Hello",
		"n":     3,
		"items": []string{"a", "b"},
		"user":  map[string]any{"name": "ada"},
		"fn":    func() string { return "skipped" },
	}
	scope := expr.NewScope(data)

	tests := []struct {
		source string
		want   any
	}{
		{`title`, "Hello"},
		{`"Title : " + title`, "Title : Hello"},
		{`n + 1`, 4},
		{`n > 2`, true},
		{`items[1]`, "b"},
		{`len(items)`, 2},
		{`user["name"]`, "ada"},
		{`strings.to_upper(title)`, "HELLO"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			prog, err := risorexpr.Compiler{}.Compile(tt.source)
			require.NoError(t, err)
			got, err := prog.Eval(scope)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("undefined names fail at evaluation", func(t *testing.T) {
		prog, err := risorexpr.Compiler{}.Compile(`missing + 1`)
		require.NoError(t, err)
		_, err = prog.Eval(scope)
		require.Error(t, err)
	})
}

func TestCompiler_SyntaxErrors(t *testing.T) {
	for _, source := range []string{`(`, `1 +`, `items[`} {
		_, err := risorexpr.Compiler{}.Compile(source)
		require.Error(t, err, source)
	}
}

func TestCompiler_ThroughEvaluators(t *testing.T) {
	c := risorexpr.New()
	scope := expr.NewScope(map[string]any{"title": "Hello World !", "items": []any{1, 2}}).
		With(map[string]any{"item": "x"})

	require.Equal(t, "Title : Hello World !", expr.Compile(c, "Title : {{ title }}")(scope))
	require.Equal(t, "x", expr.Compile(c, "{{ item }}")(scope))
	require.Equal(t, "", expr.Compile(c, "{{ missing }}")(scope))
	require.Nil(t, expr.Compile(c, "{{ ( }}"))
	require.Equal(t, []any{1, 2}, expr.CompileValue(c, "items")(scope))
}
