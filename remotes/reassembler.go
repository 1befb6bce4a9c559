package remotes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// Reassembler concatenates the chunks of one streamed payload and decodes the
// whole buffer once the stream closes.
type Reassembler[T any] struct {
	decode func([]byte) (T, error)
	buf    bytes.Buffer
	chunks int
}

func NewReassembler[T any](decode func([]byte) (T, error)) *Reassembler[T] {
	return &Reassembler[T]{
		decode: decode,
	}
}

func (r *Reassembler[T]) Push(chunk []byte) {
	r.buf.Write(chunk)
	r.chunks++
}

func (r *Reassembler[T]) Len() int {
	return r.buf.Len()
}

// Finish decodes the accumulated bytes. The buffer is released either way, and
// a failed decode never yields a partial value.
func (r *Reassembler[T]) Finish() (ret T, err error) {
	defer func() {
		r.buf = bytes.Buffer{}
		r.chunks = 0
	}()
	value, err := r.decode(r.buf.Bytes())
	if err != nil {
		if !errors.Is(err, ErrDecode) {
			err = errors.Join(ErrDecode, err)
		}
		return ret, fmt.Errorf("%d bytes in %d chunks: %w", r.buf.Len(), r.chunks, err)
	}
	return value, nil
}

// ChunkSource yields chunks until io.EOF.
type ChunkSource interface {
	Next() ([]byte, error)
}

// Reassemble drains source and decodes the result. Errors from the source are
// transport errors.
func Reassemble[T any](ctx context.Context, source ChunkSource, decode func([]byte) (T, error)) (ret T, err error) {
	r := NewReassembler(decode)
	for {
		if err := ctx.Err(); err != nil {
			return ret, transportError(ctx, err)
		}
		chunk, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ret, transportError(ctx, err)
		}
		r.Push(chunk)
	}
	return r.Finish()
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDenied) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, ErrTransport, err)
	}
	return errors.Join(ErrTransport, err)
}
