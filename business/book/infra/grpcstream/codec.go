package grpcstream

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec is a hand-written encoding.Codec: this tree carries no
// protoc-generated stub, so messages are plain JSON-tagged Go structs
// (see server.go) rather than protobuf-generated types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
