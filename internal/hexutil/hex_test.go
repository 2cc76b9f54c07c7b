package hexutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeAcceptsPrefixedHex(t *testing.T) {
	cases := map[string][]byte{
		"0x":       {},
		"0x00":     {0x00},
		"0XABcd01": {0xab, 0xcd, 0x01},
	}
	for in, want := range cases {
		got, err := Decode(in)
		if err != nil {
			t.Fatalf("decode %q: %v", in, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("decode %q: got %x want %x", in, got, want)
		}
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "0", "00", "abcd", "0x0", "0xzz", "0x0g"} {
		if _, err := Decode(in); !errors.Is(err, ErrInvalidHex) {
			t.Fatalf("decode %q: expected ErrInvalidHex, got %v", in, err)
		}
	}
}

func TestEncodeLowercasePrefixed(t *testing.T) {
	if got := Encode([]byte{0xAB, 0x01}); got != "0xab01" {
		t.Fatalf("unexpected encoding: %s", got)
	}
	if got := Encode(nil); got != "0x" {
		t.Fatalf("unexpected empty encoding: %s", got)
	}
}

func TestBytesJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		V Bytes `json:"v"`
	}{V: Bytes{0xde, 0xad}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"v":"0xdead"}` {
		t.Fatalf("unexpected json: %s", raw)
	}

	var out struct {
		V Bytes `json:"v"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(out.V, []byte{0xde, 0xad}) {
		t.Fatalf("unexpected bytes: %x", out.V)
	}
}
