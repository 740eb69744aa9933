package handler

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec serializes plain Go message structs. It replaces connect's
// built-in "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		// Connect GET requests and empty bodies decode to the zero message.
		return nil
	}
	return json.Unmarshal(data, msg)
}

// Codec returns the option that installs the JSON codec, for clients of this service.
func Codec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
