package codecs

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc/encoding"
)

// GRPCName is the content subtype of gRPC calls carrying msgpack messages.
const GRPCName = "msgpack"

// GRPCCodec lets gRPC frames carry the same msgpack values as the HTTP
// transport. It is registered at init, for clients and servers alike.
type GRPCCodec struct{}

var _ encoding.Codec = GRPCCodec{}

func init() {
	encoding.RegisterCodec(GRPCCodec{})
}

func (GRPCCodec) Marshal(v any) ([]byte, error) {
	return Encode(v)
}

func (GRPCCodec) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

func (GRPCCodec) Name() string {
	return GRPCName
}
