// Package hexutil converts between raw bytes and 0x-prefixed hex strings.
package hexutil

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const Prefix = "0x"

var ErrInvalidHex = errors.New("hexutil: invalid hex")

// Decode parses a 0x-prefixed hex string. The prefix is required; "0x"
// alone decodes to an empty slice.
func Decode(s string) ([]byte, error) {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return nil, fmt.Errorf("%w: missing 0x prefix", ErrInvalidHex)
	}
	digits := s[2:]
	if len(digits)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHex, len(digits))
	}
	out, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return out, nil
}

// Encode renders b as 0x-prefixed lowercase hex.
func Encode(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(Prefix) + hex.EncodedLen(len(b)))
	sb.WriteString(Prefix)
	sb.WriteString(hex.EncodeToString(b))
	return sb.String()
}

// Bytes marshals to and from JSON as a 0x-prefixed hex string.
type Bytes []byte

func (b Bytes) String() string {
	return Encode(b)
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(Encode(b)), nil
}

func (b *Bytes) UnmarshalText(text []byte) error {
	out, err := Decode(string(text))
	if err != nil {
		return err
	}
	*b = out
	return nil
}
