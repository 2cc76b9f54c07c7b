// Package extrinsic turns batches of hex-encoded extrinsics into envelope and
// call record pairs.
package extrinsic

import (
	"context"

	"github.com/danmuck/ledgerctl/internal/hashing"
	"github.com/danmuck/ledgerctl/internal/hexutil"
	"github.com/danmuck/ledgerctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Runtime is the decoder and call normalizer a batch is decoded against.
type Runtime interface {
	DecodeExtrinsic(data []byte) (*protocol.Extrinsic, error)
	ToCallRecord(call protocol.Call) (protocol.CallRecord, error)
}

var _ Runtime = (*protocol.Runtime)(nil)

// Extrinsic is the envelope of one decoded record. Index is the record's
// position in the input batch. Hash is present only when hashing was
// requested and is computed over the raw bytes, not a re-encoding.
type Extrinsic struct {
	Index     int                        `json:"index"`
	Version   uint8                      `json:"version"`
	Signature Option[protocol.Signature] `json:"signature,omitzero"`
	Hash      Option[string]             `json:"hash,omitzero"`
}

// Decoded pairs an envelope with its call record.
type Decoded struct {
	Extrinsic Extrinsic           `json:"extrinsic"`
	Call      protocol.CallRecord `json:"call"`
}

// DecodeExtrinsics decodes every record in order. A nil hashFn selects
// hashing.Default; it is only called when withHash is set. The first failing
// record aborts the batch and no results are returned.
func DecodeExtrinsics(rt Runtime, extrinsics []string, withHash bool, hashFn hashing.Func) ([]Decoded, error) {
	return DecodeExtrinsicsContext(context.Background(), rt, extrinsics, withHash, hashFn)
}

// DecodeExtrinsicsContext is DecodeExtrinsics with cancellation checked
// before each record.
func DecodeExtrinsicsContext(
	ctx context.Context,
	rt Runtime,
	extrinsics []string,
	withHash bool,
	hashFn hashing.Func,
) ([]Decoded, error) {
	if hashFn == nil {
		hashFn = hashing.Default
	}
	out := make([]Decoded, 0, len(extrinsics))
	for i, hex := range extrinsics {
		if err := ctx.Err(); err != nil {
			return nil, &RecordError{Index: i, Kind: KindCanceled, Err: err}
		}
		d, err := DecodeExtrinsic(rt, i, hex, withHash, hashFn)
		if err != nil {
			log.Debug().Err(err).Int("index", i).Int("count", len(extrinsics)).Msg("extrinsic.DecodeExtrinsics failed")
			return nil, err
		}
		out = append(out, d)
	}
	log.Debug().Int("count", len(out)).Bool("with_hash", withHash).Msg("extrinsic.DecodeExtrinsics")
	return out, nil
}

// DecodeExtrinsic decodes a single record that sits at index in its batch.
func DecodeExtrinsic(rt Runtime, index int, hex string, withHash bool, hashFn hashing.Func) (Decoded, error) {
	raw, err := hexutil.Decode(hex)
	if err != nil {
		return Decoded{}, &RecordError{Index: index, Kind: KindEncoding, Err: err}
	}

	src, err := rt.DecodeExtrinsic(raw)
	if err != nil {
		return Decoded{}, &RecordError{Index: index, Kind: KindDecode, Err: err}
	}
	if src == nil {
		return Decoded{}, &RecordError{Index: index, Kind: KindDecode, Err: errNoExtrinsic}
	}

	x := Extrinsic{
		Index:   index,
		Version: src.Version,
	}
	if src.Signature != nil {
		x.Signature = Some(src.Signature.Clone())
	}
	if withHash {
		if hashFn == nil {
			hashFn = hashing.Default
		}
		hash, err := hashFn(raw)
		if err != nil {
			return Decoded{}, &RecordError{Index: index, Kind: KindHash, Err: err}
		}
		x.Hash = Some(hash)
	}

	call, err := rt.ToCallRecord(src.Call)
	if err != nil {
		return Decoded{}, &RecordError{Index: index, Kind: KindNormalize, Err: err}
	}
	return Decoded{Extrinsic: x, Call: call}, nil
}
