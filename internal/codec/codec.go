// Package codec encodes and decodes application messages in the wire format
// selected at startup.
package codec

import (
	"fmt"
	"strings"

	"github.com/luciancaetano/questnet"
)

// DefaultMaxMessageSize caps a single encoded message.
const DefaultMaxMessageSize = 10 * 1024 * 1024 // 10MB

// Format selects the wire encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a format name case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("%w: %q", questnet.ErrUnknownFormat, name)
}

// Codec converts between messages and frame payloads.
//
// Decode accepts the payload of text and binary frames alike. Every decode
// failure is returned as a *questnet.DecodeError.
type Codec interface {
	Format() Format
	Encode(msg questnet.Message) ([]byte, error)
	Decode(data []byte) (questnet.Message, error)
	// Binary reports whether encoded messages should be sent as binary
	// frames rather than text frames.
	Binary() bool
}

// New returns the codec for format. A maxMessageSize of zero or less uses
// DefaultMaxMessageSize.
func New(format Format, maxMessageSize int64) (Codec, error) {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}

	switch format {
	case FormatJSON:
		return &jsonCodec{maxSize: maxMessageSize}, nil
	case FormatCBOR:
		return newCBORCodec(maxMessageSize)
	}
	return nil, fmt.Errorf("%w: %q", questnet.ErrUnknownFormat, string(format))
}

func checkSize(data []byte, maxSize int64) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%w: %d > %d bytes", questnet.ErrMessageTooLarge, len(data), maxSize)
	}
	return nil
}

func decodeError(format Format, err error) error {
	return &questnet.DecodeError{Format: string(format), Err: err}
}
