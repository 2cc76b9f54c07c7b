package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
)

var (
	ErrCallExists  = errors.New("schema: call already registered")
	ErrInvalidSpec = errors.New("schema: invalid call spec")
)

type callKey struct {
	pallet uint8
	call   uint8
}

// Registry maps (pallet index, call index) to call metadata.
type Registry struct {
	mu    sync.RWMutex
	calls map[callKey]CallSpec
}

// NewRegistry creates an empty call registry.
func NewRegistry() *Registry {
	return &Registry{calls: make(map[callKey]CallSpec)}
}

// ValidateSpec checks names, argument ids and argument types.
func ValidateSpec(spec CallSpec) error {
	if !isValidName(spec.Pallet) || !isValidName(spec.Name) {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidSpec, spec.FullName())
	}
	seenID := make(map[uint16]struct{}, len(spec.Args))
	seenName := make(map[string]struct{}, len(spec.Args))
	for _, arg := range spec.Args {
		if arg.ID == 0 {
			return fmt.Errorf("%w: %s arg %q has id 0", ErrInvalidSpec, spec.FullName(), arg.Name)
		}
		if !isValidName(arg.Name) {
			return fmt.Errorf("%w: %s arg name %q", ErrInvalidSpec, spec.FullName(), arg.Name)
		}
		if tlv.TypeName(arg.Type) == "unknown" {
			return fmt.Errorf("%w: %s arg %q has unknown type %d", ErrInvalidSpec, spec.FullName(), arg.Name, arg.Type)
		}
		if _, ok := seenID[arg.ID]; ok {
			return fmt.Errorf("%w: %s duplicate arg id %d", ErrInvalidSpec, spec.FullName(), arg.ID)
		}
		if _, ok := seenName[arg.Name]; ok {
			return fmt.Errorf("%w: %s duplicate arg name %q", ErrInvalidSpec, spec.FullName(), arg.Name)
		}
		seenID[arg.ID] = struct{}{}
		seenName[arg.Name] = struct{}{}
	}
	return nil
}

// Register adds a call. Index pairs are unique.
func (r *Registry) Register(spec CallSpec) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}
	key := callKey{pallet: spec.PalletIndex, call: spec.CallIndex}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.calls[key]; ok {
		return fmt.Errorf("%w: %d/%d is %s", ErrCallExists, spec.PalletIndex, spec.CallIndex, existing.FullName())
	}
	args := make([]ArgSpec, len(spec.Args))
	copy(args, spec.Args)
	spec.Args = args
	r.calls[key] = spec
	return nil
}

// Resolve returns the call registered at (pallet, call).
func (r *Registry) Resolve(pallet, call uint8) (CallSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.calls[callKey{pallet: pallet, call: call}]
	return spec, ok
}

// Lookup finds a call by "Pallet.call" name.
func (r *Registry) Lookup(fullName string) (CallSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, spec := range r.calls {
		if spec.FullName() == fullName {
			return spec, true
		}
	}
	return CallSpec{}, false
}

// List returns calls ordered by pallet index then call index.
func (r *Registry) List() []CallSpec {
	r.mu.RLock()
	list := make([]CallSpec, 0, len(r.calls))
	for _, spec := range r.calls {
		list = append(list, spec)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].PalletIndex != list[j].PalletIndex {
			return list[i].PalletIndex < list[j].PalletIndex
		}
		return list[i].CallIndex < list[j].CallIndex
	})
	return list
}

// Len reports the number of registered calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

// DefaultRegistry returns the built-in call set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range defaultCalls {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}

var defaultCalls = []CallSpec{
	{Pallet: "System", Name: "remark", PalletIndex: 0, CallIndex: 0, Args: []ArgSpec{
		{ID: 1, Name: "remark", Type: tlv.TypeBytes},
	}},
	{Pallet: "System", Name: "remark_with_event", PalletIndex: 0, CallIndex: 7, Args: []ArgSpec{
		{ID: 1, Name: "remark", Type: tlv.TypeBytes},
	}},
	{Pallet: "Timestamp", Name: "set", PalletIndex: 3, CallIndex: 0, Args: []ArgSpec{
		{ID: 1, Name: "now", Type: tlv.TypeU64},
	}},
	{Pallet: "Balances", Name: "transfer_allow_death", PalletIndex: 5, CallIndex: 0, Args: []ArgSpec{
		{ID: 1, Name: "dest", Type: tlv.TypeBytes},
		{ID: 2, Name: "value", Type: tlv.TypeU64},
	}},
	{Pallet: "Balances", Name: "force_transfer", PalletIndex: 5, CallIndex: 2, Args: []ArgSpec{
		{ID: 1, Name: "source", Type: tlv.TypeBytes},
		{ID: 2, Name: "dest", Type: tlv.TypeBytes},
		{ID: 3, Name: "value", Type: tlv.TypeU64},
	}},
	{Pallet: "Balances", Name: "transfer_keep_alive", PalletIndex: 5, CallIndex: 3, Args: []ArgSpec{
		{ID: 1, Name: "dest", Type: tlv.TypeBytes},
		{ID: 2, Name: "value", Type: tlv.TypeU64},
		{ID: 3, Name: "memo", Type: tlv.TypeString, Optional: true},
	}},
}

// isValidName accepts identifiers: a letter followed by letters, digits or '_'.
func isValidName(name string) bool {
	if name == "" || strings.TrimSpace(name) != name {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !(isLetter || isDigit || c == '_') {
			return false
		}
	}
	return true
}
