package schema

import (
	"fmt"

	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// ArgSpec declares one call argument carried as a TLV field.
type ArgSpec struct {
	ID       uint16
	Name     string
	Type     uint8
	Optional bool
}

// CallSpec is the metadata for one dispatchable call.
type CallSpec struct {
	Pallet      string
	Name        string
	PalletIndex uint8
	CallIndex   uint8
	Args        []ArgSpec
}

// FullName is "Pallet.call".
func (c CallSpec) FullName() string {
	return c.Pallet + "." + c.Name
}

// Arg returns the spec for the argument with the given field id.
func (c CallSpec) Arg(id uint16) (ArgSpec, bool) {
	for _, arg := range c.Args {
		if arg.ID == id {
			return arg, true
		}
	}
	return ArgSpec{}, false
}

type ValidationError struct {
	Call    string
	FieldID uint16
	Reason  string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: call=%s: %s", e.Call, e.Reason)
	}
	return fmt.Sprintf("schema: call=%s field=%d: %s", e.Call, e.FieldID, e.Reason)
}

// Validate enforces required arguments and argument types for a call. A
// declared argument may appear at most once. Unknown fields are ignored.
func Validate(spec CallSpec, fields []tlv.Field) error {
	name := spec.FullName()
	log.Debug().Str("call", name).Int("fields", len(fields)).Msg("schema.Validate")
	seen := make(map[uint16]struct{}, len(fields))
	for _, f := range fields {
		if _, declared := spec.Arg(f.ID); !declared {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			log.Debug().Str("call", name).Uint16("field_id", f.ID).Msg("schema.Validate duplicate field")
			return ValidationError{Call: name, FieldID: f.ID, Reason: "duplicate field"}
		}
		seen[f.ID] = struct{}{}
	}
	for _, arg := range spec.Args {
		f, found := tlv.GetField(fields, arg.ID)
		if !found {
			if arg.Optional {
				continue
			}
			log.Debug().Str("call", name).Uint16("field_id", arg.ID).Msg("schema.Validate missing field")
			return ValidationError{Call: name, FieldID: arg.ID, Reason: "missing required field"}
		}
		if f.Type != arg.Type {
			log.Debug().
				Str("call", name).
				Uint16("field_id", arg.ID).
				Str("got", tlv.TypeName(f.Type)).
				Str("want", tlv.TypeName(arg.Type)).
				Msg("schema.Validate type mismatch")
			return ValidationError{Call: name, FieldID: arg.ID, Reason: "type mismatch"}
		}
	}
	return nil
}
