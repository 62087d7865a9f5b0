package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"
)

// EncodeValue serializes a record value using encoding/gob. The value is
// encoded as an interface so it can be decoded without knowing its type;
// custom types must be registered with gob.Register by the caller.
func EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	iv := v
	if err := gob.NewEncoder(&buf).Encode(&iv); err != nil {
		return nil, fmt.Errorf("encode record value %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// DecodeValue reverses EncodeValue. Empty input decodes to nil.
func DecodeValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var iv any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&iv); err != nil {
		return nil, fmt.Errorf("decode record value: %w", err)
	}
	return iv, nil
}

// DecodeAs decodes data into T. It accepts both interface-encoded payloads
// written by EncodeValue and payloads gob-encoded directly as a T by other
// writers.
func DecodeAs[T any](data []byte) (T, error) {
	var zero T
	if len(data) == 0 {
		return zero, nil
	}

	v, err := DecodeValue(data)
	if err == nil {
		if tv, ok := v.(T); ok {
			return tv, nil
		}
		return zero, fmt.Errorf("decode record value: got %T, want %T", v, zero)
	}
	if !mustRetryAsConcrete(err) {
		return zero, err
	}

	var tv T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tv); err != nil {
		return zero, fmt.Errorf("decode record value as %T: %w", zero, err)
	}
	return tv, nil
}

// mustRetryAsConcrete detects gob's interface-vs-concrete mismatch error.
func mustRetryAsConcrete(err error) bool {
	s := err.Error()
	return strings.Contains(s, "can only be decoded from remote interface") &&
		strings.Contains(s, "received concrete type")
}
