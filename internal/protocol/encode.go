package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/ledgerctl/internal/protocol/frame"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
)

// EncodeExtrinsic renders x in the wire format DecodeExtrinsic reads,
// including the length prefix. The version is not checked against the
// runtime's accepted set so that fixtures for other versions can be built.
func (r *Runtime) EncodeExtrinsic(x *Extrinsic) ([]byte, error) {
	if x == nil {
		return nil, ErrEmpty
	}
	if x.Version > versionMask {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, x.Version)
	}

	body := []byte{x.Version}
	if x.Signature != nil {
		block, err := encodeSignature(*x.Signature)
		if err != nil {
			return nil, err
		}
		body[0] |= flagSigned
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(block)))
		body = append(body, lenBuf[:]...)
		body = append(body, block...)
	}
	body = append(body, x.Call.PalletIndex, x.Call.CallIndex)
	body = append(body, tlv.EncodeFields(x.Call.Args)...)

	return frame.Wrap(body, r.limits)
}

func encodeSignature(sig Signature) ([]byte, error) {
	if sig.Scheme.Size() == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, uint8(sig.Scheme))
	}
	fields := []tlv.Field{
		tlv.NewBytes(SigFieldAddress, sig.Address),
		tlv.NewU8(SigFieldScheme, uint8(sig.Scheme)),
		tlv.NewBytes(SigFieldSignature, sig.Signature),
		tlv.NewU64(SigFieldNonce, sig.Nonce),
		tlv.NewU64(SigFieldTip, sig.Tip),
	}
	if len(sig.Era) > 0 {
		fields = append(fields, tlv.NewBytes(SigFieldEra, sig.Era))
	}
	return tlv.EncodeFields(fields), nil
}
