package engine_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/vk/viewbind/internal/dom"
	"github.com/vk/viewbind/internal/engine"
	"github.com/vk/viewbind/internal/hcl"
	"github.com/vk/viewbind/internal/risorexpr"
	"github.com/vk/viewbind/internal/scheduler"
)

const todoMarkup = `
  <h1>{{ title }}</h1>
  <ul>
    <li
      {{for}}="item of items"
      class="todo{{ item.done ? ' done' : '' }}"
    >{{ item.text }}</li>
  </ul>`

func todoData() map[string]any {
	return map[string]any{
		"title": "Hello World !",
		"items": []any{
			map[string]any{"done": false, "text": "Forget about heavy frameworks"},
			map[string]any{"done": true, "text": "Adopt viewbind"},
		},
	}
}

func attach(t *testing.T, markup string, opts ...engine.Option) (*html.Node, *engine.Handle) {
	t.Helper()
	body, err := dom.ParseBody(markup)
	require.NoError(t, err)
	opts = append([]engine.Option{engine.WithDelay(20 * time.Millisecond)}, opts...)
	h, err := engine.Attach(context.Background(), body, opts...)
	require.NoError(t, err)
	return body, h
}

func await(t *testing.T, sig *scheduler.Signal) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := sig.Wait(ctx)
	require.NoError(t, err)
	return n
}

func todos(items ...string) string {
	return `h1("Hello World !") ul(` + strings.Join(append(items, "template"), " ") + `)`
}

// --- Attach ---

func TestAttach_InitialRender(t *testing.T) {
	body, h := attach(t, todoMarkup, engine.WithData(todoData()))

	assert.Equal(t, todos(
		`li[class=todo]("Forget about heavy frameworks")`,
		`li[class=todo done]("Adopt viewbind")`,
	), dom.Outline(body))
	assert.Equal(t, 2, h.BindingCount())
	require.NotNil(t, h.Model())
	assert.Same(t, body, h.Root())
}

func TestAttach_WithoutData(t *testing.T) {
	body, h := attach(t, `<p>{{ name }}</p>`)

	assert.Nil(t, h.Model())
	assert.Equal(t, `p("{{ name }}")`, dom.Outline(body), "nothing renders before the first refresh")

	n, err := h.Refresh(context.Background(), map[string]any{"name": "ann"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `p("ann")`, dom.Outline(body))

	n = await(t, h.Update(map[string]any{"name": "bob"}))
	assert.Equal(t, 1, n)
	assert.Equal(t, `p("bob")`, dom.Outline(body))
}

func TestAttach_NilRoot(t *testing.T) {
	_, err := engine.Attach(context.Background(), nil)
	require.Error(t, err)
}

func TestAttach_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	attach(t, `<p>{{ name }}</p>`, engine.WithLogger(logger), engine.WithData(map[string]any{"name": "x"}))
	assert.Contains(t, buf.String(), "Tree attached.")
}

// --- Reactive model ---

func TestReactive(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(t *testing.T, h *engine.Handle)
		want   string
	}{
		{
			name: "item change",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().Set("items[0].done", true))
			},
			want: todos(
				`li[class=todo done]("Forget about heavy frameworks")`,
				`li[class=todo done]("Adopt viewbind")`,
			),
		},
		{
			name: "adding by index",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().Update("items", func(v any) any {
					return append(v.([]any), map[string]any{"done": true, "text": "It works !"})
				}))
			},
			want: todos(
				`li[class=todo]("Forget about heavy frameworks")`,
				`li[class=todo done]("Adopt viewbind")`,
				`li[class=todo done]("It works !")`,
			),
		},
		{
			name: "append",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().Append("items", map[string]any{"done": true, "text": "It works !"}))
			},
			want: todos(
				`li[class=todo]("Forget about heavy frameworks")`,
				`li[class=todo done]("Adopt viewbind")`,
				`li[class=todo done]("It works !")`,
			),
		},
		{
			name: "prepend",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().Update("items", func(v any) any {
					return append([]any{map[string]any{"done": true, "text": "It works !"}}, v.([]any)...)
				}))
			},
			want: todos(
				`li[class=todo done]("It works !")`,
				`li[class=todo]("Forget about heavy frameworks")`,
				`li[class=todo done]("Adopt viewbind")`,
			),
		},
		{
			name: "delete last",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().Delete("items[1]"))
			},
			want: todos(`li[class=todo]("Forget about heavy frameworks")`),
		},
		{
			name: "delete first",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().Delete("items[0]"))
			},
			want: todos(`li[class=todo done]("Adopt viewbind")`),
		},
		{
			name: "through a view",
			mutate: func(t *testing.T, h *engine.Handle) {
				require.NoError(t, h.Model().View("items[1]").Set("text", "Adopted"))
			},
			want: todos(
				`li[class=todo]("Forget about heavy frameworks")`,
				`li[class=todo done]("Adopted")`,
			),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, h := attach(t, todoMarkup, engine.WithData(todoData()))
			tc.mutate(t, h)
			await(t, h.Done())
			assert.Equal(t, tc.want, dom.Outline(body))
		})
	}
}

func TestReactive_PropertyChange(t *testing.T) {
	body, h := attach(t, todoMarkup, engine.WithData(todoData()))

	require.NoError(t, h.Model().Set("title", "Test"))
	n := await(t, h.Done())
	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(dom.Outline(body), `h1("Test") `))
}

func TestReactive_Debounce(t *testing.T) {
	body, h := attach(t, todoMarkup, engine.WithData(todoData()))

	require.NoError(t, h.Model().Set("title", "Test"))
	first := h.Done()
	require.NoError(t, h.Model().Set("title", "Test 2"))
	second := h.Done()
	require.Same(t, first, second)

	n := await(t, second)
	assert.Equal(t, 1, n, "two mutations, one refresh")
	assert.True(t, strings.HasPrefix(dom.Outline(body), `h1("Test 2") `))
}

func TestReactive_UnchangedValue(t *testing.T) {
	_, h := attach(t, todoMarkup, engine.WithData(todoData()))

	previous := h.Done()
	require.NoError(t, h.Model().Set("title", "Hello World !"))
	await(t, h.Done())
	assert.Same(t, previous, h.Done(), "no refresh is scheduled")
}

// --- Failures ---

func TestRefresh_MutationFailure(t *testing.T) {
	body, h := attach(t, `<h1>{{ title }}</h1>`, engine.WithData(map[string]any{"title": "a"}))

	h1 := dom.Find(body, "h1")
	h1.RemoveChild(h1.FirstChild)

	require.NoError(t, h.Model().Set("title", "b"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.Done().Wait(ctx)
	require.ErrorIs(t, err, dom.ErrDetached)
}

func TestAttach_InitialFailure(t *testing.T) {
	body, err := dom.ParseBody(`<p {{for}}="x of count">{{ x }}</p>`)
	require.NoError(t, err)

	h, err := engine.Attach(context.Background(), body, engine.WithData(map[string]any{"count": 3}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial render")
	require.NotNil(t, h)
}

func TestRefresh_Cancelled(t *testing.T) {
	body, h := attach(t, `<p>{{ name }}</p>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Refresh(ctx, map[string]any{"name": "ann"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, `p("{{ name }}")`, dom.Outline(body), "nothing is applied")
}

func TestRefresh_CollectionFailureRecovers(t *testing.T) {
	body, h := attach(t, `<h1>{{ title }}</h1><ul><li {{for}}="x of items">{{ x }}</li></ul><i {{for}}="y of bad">{{ y }}</i>`)
	ctx := context.Background()

	_, err := h.Refresh(ctx, map[string]any{"title": "A", "items": []any{1}})
	require.NoError(t, err)

	_, err = h.Refresh(ctx, map[string]any{"title": "B", "items": []any{1, 2}, "bad": 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collecting changes")
	assert.Equal(t, `h1("A") ul(li("1") template) template`, dom.Outline(body))

	_, err = h.Refresh(ctx, map[string]any{"title": "B", "items": []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, `h1("B") ul(li("1") li("2") template) template`, dom.Outline(body))

	_, err = h.Refresh(ctx, map[string]any{"title": "B", "items": []any{1}})
	require.NoError(t, err)
	assert.Equal(t, `h1("B") ul(li("1") template) template`, dom.Outline(body))
}

// --- Compilers ---

func TestAttach_Compilers(t *testing.T) {
	testCases := []struct {
		name   string
		option engine.Option
		markup string
	}{
		{"hcl", engine.WithCompiler(hcl.New()), `<p {{if}}="length(items) > 1">{{ upper(title) }}</p>`},
		{"risor", engine.WithCompiler(risorexpr.New()), `<p {{if}}="len(items) > 1">{{ strings.to_upper(title) }}</p>`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, h := attach(t, tc.markup, tc.option, engine.WithData(todoData()))
			assert.Equal(t, `p("HELLO WORLD !") template`, dom.Outline(body))

			require.NoError(t, h.Model().Set("items", []any{}))
			await(t, h.Done())
			assert.Equal(t, `template`, dom.Outline(body))
		})
	}
}
