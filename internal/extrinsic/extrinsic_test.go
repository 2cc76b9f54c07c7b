package extrinsic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/danmuck/ledgerctl/internal/hashing"
	"github.com/danmuck/ledgerctl/internal/hexutil"
	"github.com/danmuck/ledgerctl/internal/protocol"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
	"github.com/danmuck/ledgerctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRuntime decodes any input to a fixed version and remembers what it saw.
type stubRuntime struct {
	version   uint8
	signature *protocol.Signature
	failAt    map[string]error
	callErr   error
	seen      [][]byte
}

func (s *stubRuntime) DecodeExtrinsic(data []byte) (*protocol.Extrinsic, error) {
	s.seen = append(s.seen, append([]byte(nil), data...))
	if err, ok := s.failAt[hexutil.Encode(data)]; ok {
		return nil, err
	}
	return &protocol.Extrinsic{
		Version:   s.version,
		Signature: s.signature,
		Call:      protocol.Call{PalletIndex: 0, CallIndex: 0, Args: []tlv.Field{tlv.NewBytes(1, data)}},
	}, nil
}

func (s *stubRuntime) ToCallRecord(call protocol.Call) (protocol.CallRecord, error) {
	if s.callErr != nil {
		return protocol.CallRecord{}, s.callErr
	}
	remark, _ := call.Args[0].Bytes()
	return protocol.CallRecord{
		Name:   "System.remark",
		Pallet: "System",
		Method: "remark",
		Args:   map[string]any{"remark": hexutil.Bytes(remark)},
	}, nil
}

func TestSingleUnsignedRecordWithoutHash(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}

	out, err := DecodeExtrinsics(rt, []string{"0x00"}, false, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].Extrinsic.Index)
	assert.Equal(t, uint8(4), out[0].Extrinsic.Version)
	assert.False(t, out[0].Extrinsic.Signature.IsSome())
	assert.False(t, out[0].Extrinsic.Hash.IsSome())
	assert.Equal(t, "System.remark", out[0].Call.Name)

	raw, err := json.Marshal(out[0].Extrinsic)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0,"version":4}`, string(raw))
}

func TestSingleRecordWithDefaultHash(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}

	out, err := DecodeExtrinsics(rt, []string{"0x00"}, true, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	hash, ok := out[0].Extrinsic.Hash.Get()
	require.True(t, ok)
	assert.Equal(t, "0x03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314", hash)

	raw, err := json.Marshal(out[0].Extrinsic)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0,"version":4,"hash":"0x03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314"}`, string(raw))
}

func TestDecoderRejectionAbortsWholeBatch(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("unsupported call encoding")
	rt := &stubRuntime{version: 4, failAt: map[string]error{"0x02": boom}}

	out, err := DecodeExtrinsics(rt, []string{"0x01", "0x02", "0x03"}, true, nil)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindDecode, KindOf(err))
	idx, ok := IndexOf(err)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Len(t, rt.seen, 2, "records after the failure must not be decoded")
}

func TestInvalidHexIsEncodingError(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}

	out, err := DecodeExtrinsics(rt, []string{"0x01", "0x02", "0xzz"}, false, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, hexutil.ErrInvalidHex)
	assert.Equal(t, KindEncoding, KindOf(err))
	idx, _ := IndexOf(err)
	assert.Equal(t, 2, idx)
	assert.Contains(t, err.Error(), "extrinsic 2: encoding")
}

func TestNormalizationFailureAbortsBatch(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4, callErr: protocol.ErrUnknownCall}

	out, err := DecodeExtrinsics(rt, []string{"0x01"}, false, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, protocol.ErrUnknownCall)
	assert.Equal(t, KindNormalize, KindOf(err))
}

func TestHashFunctionFailureAbortsBatch(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}
	boom := errors.New("hasher offline")
	calls := 0
	hashFn := func(data []byte) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return hashing.Sha256(data)
	}

	out, err := DecodeExtrinsics(rt, []string{"0x01", "0x02", "0x03"}, true, hashFn)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindHash, KindOf(err))
	idx, _ := IndexOf(err)
	assert.Equal(t, 1, idx)
}

func TestHashNotCalledWithoutFlag(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}
	hashFn := func([]byte) (string, error) {
		t.Fatalf("hash function called without withHash")
		return "", nil
	}
	out, err := DecodeExtrinsics(rt, []string{"0x01", "0x02"}, false, hashFn)
	require.NoError(t, err)
	for _, d := range out {
		assert.False(t, d.Extrinsic.Hash.IsSome())
	}
}

func TestCustomHashSeesRawBytes(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}
	var got [][]byte
	hashFn := func(data []byte) (string, error) {
		got = append(got, append([]byte(nil), data...))
		return hexutil.Encode(data), nil
	}

	in := []string{"0x0400", "0xdeadbeef", "0x"}
	out, err := DecodeExtrinsics(rt, in, true, hashFn)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, hex := range in {
		raw, err := hexutil.Decode(hex)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(raw, got[i]), "record %d hashed over %x", i, got[i])
		hash, _ := out[i].Extrinsic.Hash.Get()
		assert.Equal(t, hex, hash)
	}
}

func TestSignaturePresenceAndOwnership(t *testing.T) {
	testlog.Start(t)
	sig := &protocol.Signature{
		Address:   hexutil.Bytes{0x01, 0x02},
		Scheme:    protocol.SchemeEd25519,
		Signature: make(hexutil.Bytes, 64),
		Nonce:     3,
	}
	rt := &stubRuntime{version: 4, signature: sig}

	out, err := DecodeExtrinsics(rt, []string{"0x01"}, false, nil)
	require.NoError(t, err)
	got, ok := out[0].Extrinsic.Signature.Get()
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.Nonce)

	sig.Address[0] = 0xff
	assert.Equal(t, byte(0x01), got.Address[0], "envelope must not alias runtime memory")

	raw, err := json.Marshal(out[0].Extrinsic)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Contains(t, body, "signature")
	assert.NotContains(t, body, "hash")
}

func TestEmptyBatch(t *testing.T) {
	testlog.Start(t)
	out, err := DecodeExtrinsics(&stubRuntime{}, nil, true, nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestCanceledContextStopsBeforeNextRecord(t *testing.T) {
	testlog.Start(t)
	rt := &stubRuntime{version: 4}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := DecodeExtrinsicsContext(ctx, rt, []string{"0x01", "0x02"}, false, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.Empty(t, rt.seen)
}

func TestNilExtrinsicFromRuntimeIsDecodeError(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeExtrinsic(nilRuntime{}, 5, "0x00", false, nil)
	assert.Equal(t, KindDecode, KindOf(err))
	idx, _ := IndexOf(err)
	assert.Equal(t, 5, idx)
}

type nilRuntime struct{}

func (nilRuntime) DecodeExtrinsic([]byte) (*protocol.Extrinsic, error) { return nil, nil }
func (nilRuntime) ToCallRecord(protocol.Call) (protocol.CallRecord, error) {
	return protocol.CallRecord{}, nil
}

func TestDecodeWithProtocolRuntime(t *testing.T) {
	testlog.Start(t)
	rt := protocol.NewRuntime(nil)

	signed, err := rt.EncodeExtrinsic(&protocol.Extrinsic{
		Version: protocol.DefaultVersion,
		Signature: &protocol.Signature{
			Address:   bytes.Repeat([]byte{0xd4}, 32),
			Scheme:    protocol.SchemeSr25519,
			Signature: bytes.Repeat([]byte{0x01}, 64),
			Nonce:     1,
		},
		Call: protocol.Call{PalletIndex: 5, CallIndex: 3, Args: []tlv.Field{
			tlv.NewBytes(1, bytes.Repeat([]byte{0x8e}, 32)),
			tlv.NewU64(2, 500),
			tlv.NewString(3, "rent"),
		}},
	})
	require.NoError(t, err)
	unsigned, err := rt.EncodeExtrinsic(&protocol.Extrinsic{
		Version: protocol.DefaultVersion,
		Call:    protocol.Call{PalletIndex: 3, CallIndex: 0, Args: []tlv.Field{tlv.NewU64(1, 1700000000000)}},
	})
	require.NoError(t, err)

	in := []string{hexutil.Encode(unsigned), hexutil.Encode(signed)}
	out, err := DecodeExtrinsics(rt, in, true, hashing.Blake2b256)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Timestamp.set", out[0].Call.Name)
	assert.False(t, out[0].Extrinsic.Signature.IsSome())
	assert.Equal(t, "Balances.transfer_keep_alive", out[1].Call.Name)
	assert.Equal(t, "rent", out[1].Call.Args["memo"])
	assert.True(t, out[1].Extrinsic.Signature.IsSome())

	for i, raw := range [][]byte{unsigned, signed} {
		want, err := hashing.Blake2b256(raw)
		require.NoError(t, err)
		hash, _ := out[i].Extrinsic.Hash.Get()
		assert.Equal(t, want, hash)
		assert.Equal(t, i, out[i].Extrinsic.Index)
	}
}

func TestOptionJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		V Option[string] `json:"v,omitzero"`
	}
	raw, err := json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(raw))

	raw, err = json.Marshal(wrapper{V: Some("x")})
	require.NoError(t, err)
	assert.Equal(t, `{"v":"x"}`, string(raw))

	var back wrapper
	require.NoError(t, json.Unmarshal(raw, &back))
	v, ok := back.V.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	require.NoError(t, json.Unmarshal([]byte(`{"v":null}`), &back))
	assert.False(t, back.V.IsSome())
	assert.False(t, None[int]().IsSome())
}
