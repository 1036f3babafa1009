// Package engineclient talks to the co-located serving engine's
// "get model status" gRPC call. It never writes engine state, only reads
// it.
package engineclient

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is registered with grpc/encoding and selected per-call via
// grpc.CallContentSubtype. The engine's real wire format is protobuf, but
// without a protoc-generated client we cannot safely hand-author matching
// .pb.go bindings; a JSON codec over the same RPC method name lets this
// client exercise the genuine grpc.ClientConn/dial/deadline/status-code
// machinery against a test server that speaks the same codec.
const jsonCodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("engineclient: marshaling request: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("engineclient: unmarshaling response: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return jsonCodecName
}
