package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalCanonical_EscapesControls(t *testing.T) {
	got, err := MarshalCanonical("a\"b\\c\nd\x01")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\nd\u0001"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// e + combining acute accent normalizes to a single code point.
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+10000 encodes as surrogate 0xD800, which sorts before U+E000.
	got, err := MarshalCanonical(map[string]any{"\ue000": 1, "\U00010000": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\ue000\":1}", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"k": []any{struct{}{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "k"`)
}

func TestMarshalCanonical_Instruction(t *testing.T) {
	inst := Instruction{
		Type:        TypeB,
		ProductCode: "AB12",
		Quantity:    3,
		UOM:         0,
		Timestamp:   time.Date(2020, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	}

	got, err := MarshalCanonical(inst)
	require.NoError(t, err)
	assert.Equal(t,
		`{"priority":2,"product_code":"AB12","quantity":3,"timestamp":"2020-01-02T03:04:05.006Z","type":"B","uom":0}`,
		string(got))
}
