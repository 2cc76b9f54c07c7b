// Package frame handles the compact length prefix that wraps every encoded
// extrinsic.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrShortPrefix     = errors.New("frame: short length prefix")
	ErrCompactOverflow = errors.New("frame: compact value exceeds 64 bits")
	ErrLengthMismatch  = errors.New("frame: length prefix does not match body")
	ErrTooLarge        = errors.New("frame: extrinsic too large")
)

// Limits constrains decode/encode memory use.
type Limits struct {
	MaxExtrinsicBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxExtrinsicBytes: 4 * 1024 * 1024,
	}
}

// Unwrap checks the compact length prefix of data and returns the body it
// frames. The body aliases data.
func Unwrap(data []byte, limits Limits) ([]byte, error) {
	if limits.MaxExtrinsicBytes > 0 && uint64(len(data)) > limits.MaxExtrinsicBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, len(data), limits.MaxExtrinsicBytes)
	}
	length, n, err := DecodeCompact(data)
	if err != nil {
		return nil, err
	}
	body := data[n:]
	if length != uint64(len(body)) {
		return nil, fmt.Errorf("%w: prefix=%d body=%d", ErrLengthMismatch, length, len(body))
	}
	return body, nil
}

// Wrap prepends the compact length of body.
func Wrap(body []byte, limits Limits) ([]byte, error) {
	prefix := EncodeCompact(uint64(len(body)))
	total := uint64(len(prefix) + len(body))
	if limits.MaxExtrinsicBytes > 0 && total > limits.MaxExtrinsicBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, total, limits.MaxExtrinsicBytes)
	}
	out := make([]byte, 0, total)
	out = append(out, prefix...)
	return append(out, body...), nil
}

// DecodeCompact reads a SCALE compact unsigned integer from the front of b and
// returns the value and the number of bytes consumed.
func DecodeCompact(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortPrefix
	}
	switch b[0] & 0x03 {
	case 0:
		return uint64(b[0] >> 2), 1, nil
	case 1:
		if len(b) < 2 {
			return 0, 0, ErrShortPrefix
		}
		return uint64(binary.LittleEndian.Uint16(b[:2]) >> 2), 2, nil
	case 2:
		if len(b) < 4 {
			return 0, 0, ErrShortPrefix
		}
		return uint64(binary.LittleEndian.Uint32(b[:4]) >> 2), 4, nil
	default:
		size := int(b[0]>>2) + 4
		if size > 8 {
			return 0, 0, ErrCompactOverflow
		}
		if len(b) < 1+size {
			return 0, 0, ErrShortPrefix
		}
		var v uint64
		for i := size; i >= 1; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v, 1 + size, nil
	}
}

// EncodeCompact renders v in its shortest SCALE compact form.
func EncodeCompact(v uint64) []byte {
	switch {
	case v < 1<<6:
		return []byte{byte(v << 2)}
	case v < 1<<14:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(v<<2)|0x01)
		return buf
	case v < 1<<30:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(v<<2)|0x02)
		return buf
	default:
		size := 4
		for size < 8 && v>>(8*size) != 0 {
			size++
		}
		buf := make([]byte, 1+size)
		buf[0] = byte((size-4)<<2) | 0x03
		for i := 0; i < size; i++ {
			buf[1+i] = byte(v >> (8 * i))
		}
		return buf
	}
}
