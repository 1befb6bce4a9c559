// Package codecs is the binary codec between client and backend: msgpack
// values, carried in length-prefixed chunks on streaming responses.
package codecs

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrDecode marks bytes the codec rejected.
var ErrDecode = errors.New("decode error")

func Encode(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := msgpack.NewEncoder(buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Decode decodes exactly one value; trailing bytes are an error.
func Decode[T any](data []byte) (ret T, err error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&ret); err != nil {
		var zero T
		return zero, errors.Join(ErrDecode, fmt.Errorf("decode %T: %w", ret, err))
	}
	if r.Len() > 0 {
		var zero T
		return zero, errors.Join(ErrDecode, fmt.Errorf("decode %T: %d trailing bytes", ret, r.Len()))
	}
	return ret, nil
}
