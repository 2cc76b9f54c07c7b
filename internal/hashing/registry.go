package hashing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownHash = errors.New("hashing: unknown hash function")
	ErrHashExists  = errors.New("hashing: hash function already registered")
	ErrInvalidName = errors.New("hashing: invalid name")
)

var (
	mu       sync.RWMutex
	registry = map[string]Func{
		DefaultName:  Blake2b256,
		"sha3-256":   Sha3_256,
		"keccak-256": Keccak256,
		"sha256":     Sha256,
	}
)

// Register adds fn under name. Names are case-insensitive.
func Register(name string, fn Func) error {
	key := normalize(name)
	if key == "" || fn == nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[key]; ok {
		return fmt.Errorf("%w: %s", ErrHashExists, key)
	}
	registry[key] = fn
	return nil
}

// Lookup returns the function registered under name. An empty name selects
// the default.
func Lookup(name string) (Func, error) {
	key := normalize(name)
	if key == "" {
		key = DefaultName
	}
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
	return fn, nil
}

// Names returns registered names in sorted order.
func Names() []string {
	mu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	mu.RUnlock()
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
