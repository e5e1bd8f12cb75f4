package types

import (
	"encoding/json"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec selects the wire encoding of server envelopes for one viewer.
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// ParseCodec falls back to JSON for anything unknown.
func ParseCodec(s string) Codec {
	if strings.EqualFold(s, string(CodecMsgpack)) {
		return CodecMsgpack
	}
	return CodecJSON
}

func (c Codec) Binary() bool { return c == CodecMsgpack }

func (c Codec) Marshal(v any) ([]byte, error) {
	if c == CodecMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	if c == CodecMsgpack {
		return msgpack.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}
