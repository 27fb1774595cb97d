package rpc

import (
	"encoding/json"
)

// jsonCodec marshals plain Go structs. The service has no protobuf schema, so it
// replaces connect's protojson codec under the same "json" name.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
