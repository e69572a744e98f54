package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/luciancaetano/questnet"
)

// cborCodec uses Core Deterministic Encoding (RFC 8949 section 4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// Decoded values must encode back to bytes that decode to the same value.
// Times are written as tag 0 RFC 3339 strings with nanoseconds, which holds
// every tag 0 or tag 1 input exactly, and big integers always keep their
// bignum tag.
type cborCodec struct {
	maxSize int64
	enc     cbor.EncMode
	dec     cbor.DecMode
}

func newCBORCodec(maxSize int64) (*cborCodec, error) {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	encOpts.TimeTag = cbor.EncTagRequired
	encOpts.BigIntConvert = cbor.BigIntConvertNone

	enc, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encode mode: %w", err)
	}

	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decode mode: %w", err)
	}

	return &cborCodec{maxSize: maxSize, enc: enc, dec: dec}, nil
}

func (c *cborCodec) Format() Format { return FormatCBOR }

func (c *cborCodec) Binary() bool { return true }

func (c *cborCodec) Encode(msg questnet.Message) ([]byte, error) {
	data, err := c.enc.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if err := checkSize(data, c.maxSize); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *cborCodec) Decode(data []byte) (questnet.Message, error) {
	if err := checkSize(data, c.maxSize); err != nil {
		return nil, decodeError(FormatCBOR, err)
	}
	if len(data) == 0 {
		return nil, decodeError(FormatCBOR, errors.New("empty frame"))
	}

	var msg questnet.Message
	if err := c.dec.Unmarshal(data, &msg); err != nil {
		return nil, decodeError(FormatCBOR, err)
	}
	return msg, nil
}
