package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalPicksCodec(t *testing.T) {
	cases := []struct {
		name  string
		value any
		flags uint32
		back  any
	}{
		{"bytes", []byte{0x00, 0xff}, uint32(CodecTypeBinary), []byte{0x00, 0xff}},
		{"string", "bar", uint32(CodecTypeText), "bar"},
		{"int", 42, uint32(CodecTypeJSON), float64(42)},
		{"bool", false, uint32(CodecTypeJSON), false},
		{"map", map[string]any{"a": "b"}, uint32(CodecTypeJSON), map[string]any{"a": "b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, flags, err := Marshal(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.flags, flags)

			v, err := Unmarshal(data, flags)
			require.NoError(t, err)
			assert.Equal(t, tc.back, v)
		})
	}
}

func TestBinaryCodecCopies(t *testing.T) {
	src := []byte("abc")
	data, err := (&BinaryCodec{}).Encode(src)
	require.NoError(t, err)

	src[0] = 'z'
	assert.Equal(t, []byte("abc"), data)
}

func TestCodecTypeMismatch(t *testing.T) {
	_, err := (&BinaryCodec{}).Encode("not bytes")
	assert.Error(t, err)

	_, err = (&TextCodec{}).Encode([]byte("not text"))
	assert.Error(t, err)
}

func TestUnmarshalUnknownFlags(t *testing.T) {
	_, err := Unmarshal([]byte("x"), 99)
	assert.Error(t, err)
}

func TestJSONCodecBadPayload(t *testing.T) {
	_, err := Unmarshal([]byte("{"), uint32(CodecTypeJSON))
	assert.Error(t, err)
}
