package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseBodyAndOutline(t *testing.T) {
	body, err := ParseBody(`<h1>before</h1>
  <div id="x" {{for}}="item of items">{{ item }}</div>
  <template><p>hidden</p></template>`)
	require.NoError(t, err)

	assert.Equal(t, `h1("before") div[id=x {{for}}=item of items]("{{ item }}") template`, Outline(body))
}

func TestAttributes(t *testing.T) {
	body, err := ParseBody(`<div a="1" b="2"></div>`)
	require.NoError(t, err)
	div := Find(body, "div")
	require.NotNil(t, div)

	v, ok := Attr(div, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	SetAttr(div, "a", "one")
	SetAttr(div, "c", "3")
	RemoveAttr(div, "b")

	_, ok = Attr(div, "b")
	assert.False(t, ok)
	assert.Equal(t, `div[a=one c=3]`, Outline(body))
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	body, err := ParseBody(`<ul id="list"><li>one</li><li>two</li></ul>`)
	require.NoError(t, err)
	ul := Find(body, "ul")

	c := Clone(ul)
	assert.Nil(t, c.Parent)
	assert.NotSame(t, ul.FirstChild, c.FirstChild)

	SetAttr(c, "id", "copy")
	v, _ := Attr(ul, "id")
	assert.Equal(t, "list", v)
	holder := &html.Node{Type: html.ElementNode, Data: "holder"}
	holder.AppendChild(c)
	assert.Equal(t, `ul[id=copy](li("one") li("two"))`, Outline(holder))
}

func TestSiblingNavigation(t *testing.T) {
	body, err := ParseBody(`<a></a> text <b></b><i></i>`)
	require.NoError(t, err)

	a := Find(body, "a")
	assert.Equal(t, "b", NextElementSibling(a).Data)
	assert.Equal(t, "i", ElementChild(body, 2).Data)
	assert.Nil(t, ElementChild(body, 3))
}

func TestCheckedMutations(t *testing.T) {
	body, err := ParseBody(`<p>old</p>`)
	require.NoError(t, err)
	p := Find(body, "p")
	old := p.FirstChild

	require.NoError(t, Replace(p, NewText("new"), old))
	assert.Equal(t, `p("new")`, Outline(body))

	err = Replace(p, NewText("again"), old)
	assert.True(t, errors.Is(err, ErrDetached))

	anchor := NewPlaceholder()
	body.AppendChild(anchor)
	require.NoError(t, InsertBefore(NewText("before anchor"), anchor))
	assert.Equal(t, `p("new") "before anchor" template`, Outline(body))

	require.NoError(t, Remove(body, p))
	assert.ErrorIs(t, Remove(body, p), ErrDetached)
	assert.ErrorIs(t, InsertBefore(NewText("x"), NewPlaceholder()), ErrDetached)
}
