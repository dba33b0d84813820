package widgets

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Create(t *testing.T) {
	p := NewParser()

	req, err := p.Parse([]byte(`{"type":"create","requestId":"r1","owner":"John Doe","widgetId":"123","otherAttributes":[{"name":"size","value":"5"}]}`))
	require.NoError(t, err)

	c, ok := req.(*Create)
	require.True(t, ok, "expected *Create, got %T", req)
	assert.Equal(t, OpCreate, c.Op())
	assert.Equal(t, "widgets/john-doe/123", c.Key().String())
	assert.Equal(t, "r1", c.RequestID())

	rec := c.Record()
	assert.Equal(t, "John Doe", rec["id"])
	assert.Equal(t, "5", rec["size"])
	assert.NotContains(t, rec, "otherAttributes")
}

func TestParse_Update(t *testing.T) {
	p := NewParser()

	req, err := p.Parse([]byte(`{"type":"update","owner":"Ann","widgetId":"widgets/7","description":"new","otherAttributes":[{"name":"color","value":"red"}]}`))
	require.NoError(t, err)

	u, ok := req.(*Update)
	require.True(t, ok, "expected *Update, got %T", req)
	assert.Equal(t, "widgets/ann/7", u.Key().String())
	assert.True(t, u.HasDescription)
	assert.Equal(t, "new", u.Description)
	assert.Equal(t, []Attribute{{Name: "color", Value: "red"}}, u.Attributes)
}

func TestParse_UpdateWithoutDescription(t *testing.T) {
	p := NewParser()

	req, err := p.Parse([]byte(`{"type":"update","owner":"Ann","widgetId":"7"}`))
	require.NoError(t, err)
	assert.False(t, req.(*Update).HasDescription)
}

func TestParse_UpdateNullDescription(t *testing.T) {
	req, err := NewParser().Parse([]byte(`{"type":"update","owner":"Ann","widgetId":"7","description":null}`))
	require.NoError(t, err)

	u := req.(*Update)
	assert.True(t, u.HasDescription)
	assert.Nil(t, u.Description)
}

func TestParse_OptionalFieldsOfAnyType(t *testing.T) {
	p := NewParser()

	t.Run("create keeps label of any type", func(t *testing.T) {
		req, err := p.Parse([]byte(`{"type":"create","owner":"Ann","widgetId":"7","label":7,"description":5}`))
		require.NoError(t, err)

		rec := req.(*Create).Record()
		assert.Equal(t, json.Number("7"), rec["label"])
		assert.Equal(t, json.Number("5"), rec["description"])
	})

	t.Run("numeric request id is ignored", func(t *testing.T) {
		req, err := p.Parse([]byte(`{"type":"delete","requestId":42,"owner":"Ann","widgetId":"7"}`))
		require.NoError(t, err)
		assert.Equal(t, "", req.RequestID())
	})

	t.Run("update with numeric description", func(t *testing.T) {
		req, err := p.Parse([]byte(`{"type":"update","owner":"Ann","widgetId":"7","description":5}`))
		require.NoError(t, err)
		assert.Equal(t, json.Number("5"), req.(*Update).Description)
	})

	t.Run("non-object attribute entries are skipped", func(t *testing.T) {
		req, err := p.Parse([]byte(`{"type":"update","owner":"Ann","widgetId":"7","otherAttributes":["junk",{"name":"color","value":"red"}]}`))
		require.NoError(t, err)
		assert.Equal(t, []Attribute{{Name: "color", Value: "red"}}, req.(*Update).Attributes)
	})

	t.Run("create with junk attribute entry", func(t *testing.T) {
		req, err := p.Parse([]byte(`{"type":"create","owner":"Ann","widgetId":"7","otherAttributes":["junk",{"name":"size","value":"5"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "5", req.(*Create).Record()["size"])
	})
}

func TestParse_PreservesLargeIntegers(t *testing.T) {
	req, err := NewParser().Parse([]byte(`{"type":"create","owner":"Ann","widgetId":"7","serial":12345678901234567890,"otherAttributes":[{"name":"count","value":9007199254740993}]}`))
	require.NoError(t, err)

	data, err := req.(*Create).Record().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"serial":12345678901234567890`)
	assert.Contains(t, string(data), `"count":9007199254740993`)
}

func TestParse_DeleteViaOperationField(t *testing.T) {
	p := NewParser()

	req, err := p.Parse([]byte(`{"operation":"delete","owner":"Ann","widgetId":"7"}`))
	require.NoError(t, err)
	assert.Equal(t, OpDelete, req.Op())
}

func TestParse_Malformed(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"type":`},
		{name: "not an object", body: `[1,2]`},
		{name: "trailing data", body: `{"type":"delete","owner":"a","widgetId":"1"} {}`},
		{name: "null document", body: `null`},
		{name: "missing type", body: `{"owner":"a","widgetId":"1"}`},
		{name: "unknown type", body: `{"type":"upsert","owner":"a","widgetId":"1"}`},
		{name: "type case matters", body: `{"type":"Create","owner":"a","widgetId":"1"}`},
		{name: "missing owner", body: `{"type":"update","widgetId":"1"}`},
		{name: "missing widget id", body: `{"type":"delete","owner":"a"}`},
		{name: "owner wrong type", body: `{"type":"delete","owner":5,"widgetId":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.Parse([]byte(tt.body))
			assert.Nil(t, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRequest), "expected ErrMalformedRequest, got %v", err)

			var me *MalformedError
			assert.True(t, errors.As(err, &me))
		})
	}
}

func TestParse_UnknownTypeReason(t *testing.T) {
	_, err := NewParser().Parse([]byte(`{"type":"archive","owner":"a","widgetId":"1"}`))

	var me *MalformedError
	require.True(t, errors.As(err, &me))
	assert.Contains(t, me.Reason, "unrecognized operation")
}
