package codec

import (
	"errors"
)

// BinaryCodec stores raw bytes untouched.
type BinaryCodec struct{}

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	// v must be []byte
	b, ok := v.([]byte)
	if !ok {
		return nil, errors.New("BinaryCodec: v must be []byte")
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return buf, nil
}

func (c *BinaryCodec) Decode(data []byte) (any, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}

// TextCodec stores strings as their UTF-8 bytes so other memcached clients can read them.
type TextCodec struct{}

func (c *TextCodec) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.New("TextCodec: v must be string")
	}
	return []byte(s), nil
}

func (c *TextCodec) Decode(data []byte) (any, error) {
	return string(data), nil
}

func (c *TextCodec) Type() CodecType {
	return CodecTypeText
}
