package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoc_RendersFieldsInOrder(t *testing.T) {
	doc, err := Doc("id", "42", "title", "Apple pie")
	require.NoError(t, err)

	assert.Equal(t,
		`<doc><field name="id">42</field><field name="title">Apple pie</field></doc>`,
		doc.XML())
}

func TestDoc_DuplicateFieldsKeepInputOrder(t *testing.T) {
	doc, err := Doc("tag", "fruit", "tag", "dessert", "tag", "baked")
	require.NoError(t, err)

	assert.Equal(t,
		`<doc><field name="tag">fruit</field><field name="tag">dessert</field><field name="tag">baked</field></doc>`,
		doc.XML())
}

func TestDoc_EmptyInput(t *testing.T) {
	doc, err := Doc()
	require.NoError(t, err)
	assert.Equal(t, "<doc></doc>", doc.XML())
}

func TestDoc_OddLengthRejected(t *testing.T) {
	_, err := Doc("id", "1", "title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alternating name/value pairs")
}

func TestDoc_EscapesNamesAndValues(t *testing.T) {
	doc, err := Doc(`a&b`, `<tasty> "pie"`)
	require.NoError(t, err)

	assert.Equal(t,
		`<doc><field name="a&amp;b">&lt;tasty&gt; &quot;pie&quot;</field></doc>`,
		doc.XML())
}
