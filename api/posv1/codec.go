// Package posv1 defines the pos.v1 gRPC services. Messages travel as JSON.
package posv1

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func Codec() encoding.Codec { return jsonCodec{} }

// ServerOption makes a server speak the pos.v1 wire format.
func ServerOption() grpc.ServerOption {
	return grpc.ForceServerCodec(jsonCodec{})
}

// DialOption makes a client connection speak the pos.v1 wire format.
func DialOption() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}))
}
