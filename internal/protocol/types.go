package protocol

import (
	"fmt"

	"github.com/danmuck/ledgerctl/internal/hexutil"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
)

const (
	flagSigned  byte = 0x80
	versionMask byte = 0x7f

	DefaultVersion uint8 = 4
)

// Signature block field ids.
const (
	SigFieldAddress   uint16 = 1
	SigFieldScheme    uint16 = 2
	SigFieldSignature uint16 = 3
	SigFieldNonce     uint16 = 4
	SigFieldTip       uint16 = 5
	SigFieldEra       uint16 = 6
)

type SignatureScheme uint8

const (
	SchemeEd25519 SignatureScheme = 0
	SchemeSr25519 SignatureScheme = 1
	SchemeEcdsa   SignatureScheme = 2
)

func (s SignatureScheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ed25519"
	case SchemeSr25519:
		return "sr25519"
	case SchemeEcdsa:
		return "ecdsa"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// Size is the signature length for the scheme, 0 when unknown.
func (s SignatureScheme) Size() int {
	switch s {
	case SchemeEd25519, SchemeSr25519:
		return 64
	case SchemeEcdsa:
		return 65
	default:
		return 0
	}
}

func (s SignatureScheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SignatureScheme) UnmarshalText(text []byte) error {
	for _, candidate := range []SignatureScheme{SchemeEd25519, SchemeSr25519, SchemeEcdsa} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownScheme, text)
}

// Signature is the signer block of a signed extrinsic. It is carried through
// decoding untouched; nothing here verifies it.
type Signature struct {
	Address   hexutil.Bytes   `json:"address"`
	Scheme    SignatureScheme `json:"scheme"`
	Signature hexutil.Bytes   `json:"signature"`
	Nonce     uint64          `json:"nonce"`
	Tip       uint64          `json:"tip"`
	Era       hexutil.Bytes   `json:"era,omitempty"`
}

// Clone returns a deep copy.
func (s Signature) Clone() Signature {
	out := s
	out.Address = cloneBytes(s.Address)
	out.Signature = cloneBytes(s.Signature)
	out.Era = cloneBytes(s.Era)
	return out
}

// Call is the undecoded call payload: indices plus raw TLV arguments.
type Call struct {
	PalletIndex uint8
	CallIndex   uint8
	Args        []tlv.Field
}

// Extrinsic is the decoded intermediate structure of one raw extrinsic.
type Extrinsic struct {
	Version   uint8
	Signature *Signature
	Call      Call
}

// Signed reports whether a signature block is present.
func (x *Extrinsic) Signed() bool {
	return x != nil && x.Signature != nil
}

// CallRecord is the normalized, named form of a Call.
type CallRecord struct {
	Name   string         `json:"name"`
	Pallet string         `json:"pallet"`
	Method string         `json:"method"`
	Args   map[string]any `json:"args"`
}

func cloneBytes(b []byte) hexutil.Bytes {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
