// Package codec serializes cache values for the memcached wire.
//
// memcached stores opaque bytes plus a 32-bit flags word. The flags word carries
// the CodecType so that Get can decode a value with the codec that encoded it:
//
//	Set("k", []byte{..})  → BinaryCodec → flags=1
//	Set("k", "text")      → TextCodec   → flags=2
//	Set("k", anything)    → JSONCodec   → flags=0
package codec

import "fmt"

type CodecType byte

const (
	CodecTypeJSON   CodecType = 0
	CodecTypeBinary CodecType = 1
	CodecTypeText   CodecType = 2
)

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
	Type() CodecType // 0=JSON, 1=Binary, 2=Text
}

// GetCodec returns the codec registered for codecType.
func GetCodec(codecType CodecType) (Codec, error) {
	switch codecType {
	case CodecTypeJSON:
		return &JSONCodec{}, nil
	case CodecTypeBinary:
		return &BinaryCodec{}, nil
	case CodecTypeText:
		return &TextCodec{}, nil
	}
	return nil, fmt.Errorf("codec: unknown codec type %d", codecType)
}

// For picks the codec that round-trips v with the least overhead.
func For(v any) Codec {
	switch v.(type) {
	case []byte:
		return &BinaryCodec{}
	case string:
		return &TextCodec{}
	}
	return &JSONCodec{}
}

// Marshal encodes v and returns the payload together with the flags word to store.
func Marshal(v any) ([]byte, uint32, error) {
	c := For(v)
	data, err := c.Encode(v)
	if err != nil {
		return nil, 0, err
	}
	return data, uint32(c.Type()), nil
}

// Unmarshal decodes a payload read back with the given flags word.
func Unmarshal(data []byte, flags uint32) (any, error) {
	c, err := GetCodec(CodecType(flags))
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}
