package schema

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
)

// metadata file layout:
//
//	[[pallets]]
//	name = "Balances"
//	index = 5
//	  [[pallets.calls]]
//	  name = "transfer_allow_death"
//	  index = 0
//	    [[pallets.calls.args]]
//	    id = 1
//	    name = "dest"
//	    type = "bytes"
type fileMetadata struct {
	Pallets []filePallet `toml:"pallets"`
}

type filePallet struct {
	Name  string     `toml:"name"`
	Index uint8      `toml:"index"`
	Calls []fileCall `toml:"calls"`
}

type fileCall struct {
	Name  string    `toml:"name"`
	Index uint8     `toml:"index"`
	Args  []fileArg `toml:"args"`
}

type fileArg struct {
	ID       uint16 `toml:"id"`
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Optional bool   `toml:"optional"`
}

// LoadFile builds a registry from a TOML metadata file.
func LoadFile(path string) (*Registry, error) {
	var raw fileMetadata
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load runtime metadata (%s): %w", path, err)
	}
	return fromMetadata(raw)
}

// Parse builds a registry from TOML metadata text.
func Parse(data string) (*Registry, error) {
	var raw fileMetadata
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parse runtime metadata: %w", err)
	}
	return fromMetadata(raw)
}

func fromMetadata(raw fileMetadata) (*Registry, error) {
	r := NewRegistry()
	for _, pallet := range raw.Pallets {
		for _, call := range pallet.Calls {
			spec := CallSpec{
				Pallet:      pallet.Name,
				Name:        call.Name,
				PalletIndex: pallet.Index,
				CallIndex:   call.Index,
				Args:        make([]ArgSpec, 0, len(call.Args)),
			}
			for _, arg := range call.Args {
				typ, err := tlv.ParseType(arg.Type)
				if err != nil {
					return nil, fmt.Errorf("%s.%s arg %q: %w", pallet.Name, call.Name, arg.Name, err)
				}
				spec.Args = append(spec.Args, ArgSpec{
					ID:       arg.ID,
					Name:     arg.Name,
					Type:     typ,
					Optional: arg.Optional,
				})
			}
			if err := r.Register(spec); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}
