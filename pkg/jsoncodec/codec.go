// Package jsoncodec lets connect carry plain Go structs as JSON, so services
// can be declared without generated protobuf messages.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

const Name = "json"

type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string {
	return Name
}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}

// HandlerOption and ClientOption register the codec under the "json" name,
// replacing connect's protobuf-only JSON codec.
func HandlerOption() connect.HandlerOption {
	return connect.WithCodec(Codec{})
}

func ClientOption() connect.ClientOption {
	return connect.WithCodec(Codec{})
}
