package codec

import (
	"encoding/json"
	"errors"

	"github.com/luciancaetano/questnet"
)

type jsonCodec struct {
	maxSize int64
}

func (c *jsonCodec) Format() Format { return FormatJSON }

func (c *jsonCodec) Binary() bool { return false }

func (c *jsonCodec) Encode(msg questnet.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if err := checkSize(data, c.maxSize); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *jsonCodec) Decode(data []byte) (questnet.Message, error) {
	if err := checkSize(data, c.maxSize); err != nil {
		return nil, decodeError(FormatJSON, err)
	}
	if len(data) == 0 {
		return nil, decodeError(FormatJSON, errors.New("empty frame"))
	}

	var msg questnet.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, decodeError(FormatJSON, err)
	}
	return msg, nil
}
