package protocol

import (
	"fmt"

	"github.com/danmuck/ledgerctl/internal/hexutil"
	"github.com/danmuck/ledgerctl/internal/protocol/schema"
)

// ToCallRecord resolves call against the registry, validates its arguments
// and returns them by name. Arguments the metadata does not declare are
// dropped.
func (r *Runtime) ToCallRecord(call Call) (CallRecord, error) {
	spec, ok := r.registry.Resolve(call.PalletIndex, call.CallIndex)
	if !ok {
		return CallRecord{}, fmt.Errorf("%w: pallet=%d call=%d", ErrUnknownCall, call.PalletIndex, call.CallIndex)
	}
	if err := schema.Validate(spec, call.Args); err != nil {
		return CallRecord{}, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	args := make(map[string]any, len(spec.Args))
	for _, field := range call.Args {
		arg, known := spec.Arg(field.ID)
		if !known {
			continue
		}
		v, err := field.Any()
		if err != nil {
			return CallRecord{}, fmt.Errorf("%w: %s.%s: %w", ErrInvalidArgs, spec.FullName(), arg.Name, err)
		}
		if b, ok := v.([]byte); ok {
			v = hexutil.Bytes(b)
		}
		args[arg.Name] = v
	}

	return CallRecord{
		Name:   spec.FullName(),
		Pallet: spec.Pallet,
		Method: spec.Name,
		Args:   args,
	}, nil
}
