package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec replaces connect's protobuf JSON codec for plain structs. It keeps the
// "json" name so the wire content type stays application/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
