package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_NoParamsIsMinimalEnvelope(t *testing.T) {
	doc, err := Doc("id", "1")
	require.NoError(t, err)

	payload, err := Add(doc)
	require.NoError(t, err)
	assert.Equal(t, `<add><doc><field name="id">1</field></doc></add>`, payload)
}

func TestAdd_ParamsBecomeEnvelopeAttributesInOrder(t *testing.T) {
	doc, err := Doc("id", "1")
	require.NoError(t, err)

	payload, err := Add(doc, "overwrite", "true", "boost", "2.0")
	require.NoError(t, err)
	assert.Equal(t,
		`<add overwrite="true" boost="2.0"><doc><field name="id">1</field></doc></add>`,
		payload)
}

func TestAdd_DocumentFragmentIsNotEscapedAgain(t *testing.T) {
	// The fragment contains already-escaped markup; re-escaping the
	// entities would corrupt it.
	doc, err := Doc("title", "salt & pepper")
	require.NoError(t, err)
	require.Contains(t, doc.XML(), "salt &amp; pepper")

	payload, err := Add(doc, "overwrite", "true")
	require.NoError(t, err)
	assert.Contains(t, payload, "salt &amp; pepper")
	assert.NotContains(t, payload, "&amp;amp;")
}

func TestAdd_OddParamsRejected(t *testing.T) {
	doc, err := Doc("id", "1")
	require.NoError(t, err)

	_, err = Add(doc, "overwrite")
	require.Error(t, err)
}

func TestCommitAndOptimizePayloads(t *testing.T) {
	assert.Equal(t, "<commit/>", Commit())
	assert.Equal(t, "<optimize/>", Optimize())
}

func TestRequestFactory_SingleArgIsQueryShorthand(t *testing.T) {
	req, err := DefaultRequestFactory().Make("id:1")
	require.NoError(t, err)

	assert.Equal(t, "standard", req.Handler)
	assert.Equal(t, []string{"q", "id:1", "start", "0", "rows", "20", "version", "2.2"}, req.Params)
}

func TestRequestFactory_PairsWithDefaultsAppended(t *testing.T) {
	req, err := DefaultRequestFactory().Make("q", "*:*", "sort", "title asc")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"q", "*:*", "sort", "title asc", "start", "0", "rows", "20", "version", "2.2"},
		req.Params)
}

func TestRequestFactory_ExplicitParamWinsOverDefault(t *testing.T) {
	req, err := DefaultRequestFactory().Make("q", "*:*", "rows", "5")
	require.NoError(t, err)

	rows, ok := req.Param("rows")
	require.True(t, ok)
	assert.Equal(t, "5", rows)

	// The default must not be appended as a duplicate.
	count := 0
	for i := 0; i+1 < len(req.Params); i += 2 {
		if req.Params[i] == "rows" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRequestFactory_OddArgsRejected(t *testing.T) {
	_, err := DefaultRequestFactory().Make("q", "*:*", "rows")
	require.Error(t, err)
}

func TestRequest_CloseIsIdempotent(t *testing.T) {
	req, err := DefaultRequestFactory().Make("*:*")
	require.NoError(t, err)

	released := 0
	req.OnClose(func() { released++ })

	req.Close()
	req.Close()
	assert.Equal(t, 1, released)
	assert.True(t, req.Closed())
}
