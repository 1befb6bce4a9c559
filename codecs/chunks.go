package codecs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxChunkSize bounds a single chunk on the wire.
const MaxChunkSize = 16 << 20

// DefaultChunkSize is what senders split payloads into.
const DefaultChunkSize = 64 << 10

// ErrTruncated means the stream ended inside a chunk.
var ErrTruncated = errors.New("truncated chunk stream")

// ChunkWriter frames each chunk as a 4-byte big-endian length and the bytes.
type ChunkWriter struct {
	w io.Writer
}

func NewChunkWriter(w io.Writer) *ChunkWriter {
	return &ChunkWriter{
		w: w,
	}
}

func (c *ChunkWriter) WriteChunk(data []byte) error {
	if len(data) > MaxChunkSize {
		return fmt.Errorf("chunk too large: %d", len(data))
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := c.w.Write(header[:]); err != nil {
		return err
	}
	_, err := c.w.Write(data)
	return err
}

// WriteChunked splits payload into chunks of at most size bytes.
func (c *ChunkWriter) WriteChunked(payload []byte, size int) error {
	if size <= 0 {
		size = DefaultChunkSize
	}
	for len(payload) > 0 {
		n := min(size, len(payload))
		if err := c.WriteChunk(payload[:n]); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

type ChunkReader struct {
	r io.Reader
}

func NewChunkReader(r io.Reader) *ChunkReader {
	return &ChunkReader{
		r: r,
	}
}

// Next returns the next chunk, or io.EOF when the stream ended cleanly on a
// chunk boundary.
func (c *ChunkReader) Next() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxChunkSize {
		return nil, fmt.Errorf("chunk too large: %d", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(c.r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return data, nil
}
