// Package hashing provides the content-id functions used to derive extrinsic
// hashes from raw extrinsic bytes.
package hashing

import (
	"crypto/sha256"

	"github.com/danmuck/ledgerctl/internal/hexutil"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Func derives a content id from the exact raw bytes of one extrinsic and
// returns it as a 0x-prefixed lowercase hex string. Implementations must be
// deterministic and safe for concurrent use; callers may share one Func
// across goroutines.
type Func func(data []byte) (string, error)

const DefaultName = "blake2b-256"

// Default is the content id used when a caller does not choose one. It is
// always BLAKE2b-256.
func Default(data []byte) (string, error) {
	return Blake2b256(data)
}

func Blake2b256(data []byte) (string, error) {
	sum := blake2b.Sum256(data)
	return hexutil.Encode(sum[:]), nil
}

func Sha3_256(data []byte) (string, error) {
	sum := sha3.Sum256(data)
	return hexutil.Encode(sum[:]), nil
}

func Keccak256(data []byte) (string, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return hexutil.Encode(h.Sum(nil)), nil
}

func Sha256(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hexutil.Encode(sum[:]), nil
}
