package extrinsic

import (
	"errors"
	"fmt"
)

// Kind classifies which step of decoding a record failed.
type Kind string

const (
	KindEncoding  Kind = "encoding"
	KindDecode    Kind = "decode"
	KindNormalize Kind = "normalize"
	KindHash      Kind = "hash"
	KindCanceled  Kind = "canceled"
)

var errNoExtrinsic = errors.New("extrinsic: runtime returned no extrinsic")

// RecordError reports the failing record of a batch. The batch produced no
// output.
type RecordError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("extrinsic %d: %s: %v", e.Index, e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func KindOf(err error) Kind {
	var rec *RecordError
	if errors.As(err, &rec) {
		return rec.Kind
	}
	return ""
}

// IndexOf returns the index of the failing record, if err carries one.
func IndexOf(err error) (int, bool) {
	var rec *RecordError
	if errors.As(err, &rec) {
		return rec.Index, true
	}
	return 0, false
}
