package codecs

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type testValue struct {
	Name   string    `msgpack:"name"`
	Values []float64 `msgpack:"values"`
}

func TestCodec(t *testing.T) {
	data, err := Encode(testValue{
		Name:   "a",
		Values: []float64{1, 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := Decode[testValue](data)
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "a" || len(v.Values) != 2 {
		t.Fatalf("got %+v", v)
	}

	_, err = Decode[testValue](data[:len(data)-3])
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v", err)
	}

	_, err = Decode[testValue](append(data, 0xc0))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v", err)
	}
}

func TestChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 10)
	buf := new(bytes.Buffer)
	if err := NewChunkWriter(buf).WriteChunked(payload, 32); err != nil {
		t.Fatal(err)
	}

	reader := NewChunkReader(bytes.NewReader(buf.Bytes()))
	var got []byte
	var n int
	for {
		chunk, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		n++
		got = append(got, chunk...)
	}
	if n != 4 {
		t.Fatalf("got %d chunks", n)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal()
	}

	// cut inside the last chunk
	reader = NewChunkReader(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	var err error
	for err == nil {
		_, err = reader.Next()
	}
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("got %v", err)
	}
}
