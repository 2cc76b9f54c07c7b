package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/ledgerctl/internal/protocol/frame"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
)

// DecodeExtrinsic parses one length-prefixed extrinsic. The result owns its
// memory; data is not retained.
func (r *Runtime) DecodeExtrinsic(data []byte) (*Extrinsic, error) {
	body, err := frame.Unwrap(data, r.limits)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmpty
	}

	version := body[0] & versionMask
	if !r.Supports(version) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	x := &Extrinsic{Version: version}
	rest := body[1:]

	if body[0]&flagSigned != 0 {
		if len(rest) < 4 {
			return nil, ErrTruncated
		}
		blockLen := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint64(blockLen) > uint64(len(rest)) {
			return nil, ErrTruncated
		}
		sig, err := parseSignature(rest[:blockLen])
		if err != nil {
			return nil, err
		}
		x.Signature = sig
		rest = rest[blockLen:]
	}

	if len(rest) < 2 {
		return nil, ErrTruncated
	}
	args, err := tlv.DecodeFields(rest[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	x.Call = Call{PalletIndex: rest[0], CallIndex: rest[1], Args: args}
	return x, nil
}

func parseSignature(block []byte) (*Signature, error) {
	fields, err := tlv.DecodeFields(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	address, err := requiredField(fields, SigFieldAddress, "address")
	if err != nil {
		return nil, err
	}
	schemeField, err := requiredField(fields, SigFieldScheme, "scheme")
	if err != nil {
		return nil, err
	}
	sigField, err := requiredField(fields, SigFieldSignature, "signature")
	if err != nil {
		return nil, err
	}
	nonceField, err := requiredField(fields, SigFieldNonce, "nonce")
	if err != nil {
		return nil, err
	}
	tipField, err := requiredField(fields, SigFieldTip, "tip")
	if err != nil {
		return nil, err
	}

	sig := &Signature{}
	if sig.Address, err = address.Bytes(); err != nil {
		return nil, fmt.Errorf("%w: address: %w", ErrInvalidSignature, err)
	}
	if len(sig.Address) == 0 {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidSignature)
	}
	rawScheme, err := schemeField.U8()
	if err != nil {
		return nil, fmt.Errorf("%w: scheme: %w", ErrInvalidSignature, err)
	}
	sig.Scheme = SignatureScheme(rawScheme)
	if sig.Scheme.Size() == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, rawScheme)
	}
	if sig.Signature, err = sigField.Bytes(); err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrInvalidSignature, err)
	}
	if len(sig.Signature) != sig.Scheme.Size() {
		return nil, fmt.Errorf("%w: %s signature is %d bytes, want %d",
			ErrInvalidSignature, sig.Scheme, len(sig.Signature), sig.Scheme.Size())
	}
	if sig.Nonce, err = nonceField.U64(); err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", ErrInvalidSignature, err)
	}
	if sig.Tip, err = tipField.U64(); err != nil {
		return nil, fmt.Errorf("%w: tip: %w", ErrInvalidSignature, err)
	}
	if era, ok := tlv.GetField(fields, SigFieldEra); ok {
		if sig.Era, err = era.Bytes(); err != nil {
			return nil, fmt.Errorf("%w: era: %w", ErrInvalidSignature, err)
		}
	}
	return sig, nil
}

func requiredField(fields []tlv.Field, id uint16, name string) (tlv.Field, error) {
	f, ok := tlv.GetField(fields, id)
	if !ok {
		return tlv.Field{}, fmt.Errorf("%w: missing %s", ErrInvalidSignature, name)
	}
	return f, nil
}
