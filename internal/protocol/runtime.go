package protocol

import (
	"github.com/danmuck/ledgerctl/internal/protocol/frame"
	"github.com/danmuck/ledgerctl/internal/protocol/schema"
)

// Runtime decodes extrinsics and normalizes their calls against a call
// registry. It holds no per-call state and is safe for concurrent use once
// built.
type Runtime struct {
	registry *schema.Registry
	limits   frame.Limits
	versions map[uint8]struct{}
}

type Option func(*Runtime)

func WithLimits(limits frame.Limits) Option {
	return func(r *Runtime) {
		r.limits = limits
	}
}

// WithVersions replaces the accepted format versions.
func WithVersions(versions ...uint8) Option {
	return func(r *Runtime) {
		if len(versions) == 0 {
			return
		}
		r.versions = make(map[uint8]struct{}, len(versions))
		for _, v := range versions {
			r.versions[v] = struct{}{}
		}
	}
}

// NewRuntime builds a runtime over registry; nil means schema.DefaultRegistry.
func NewRuntime(registry *schema.Registry, opts ...Option) *Runtime {
	if registry == nil {
		registry = schema.DefaultRegistry()
	}
	r := &Runtime{
		registry: registry,
		limits:   frame.DefaultLimits(),
		versions: map[uint8]struct{}{DefaultVersion: {}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) Registry() *schema.Registry {
	return r.registry
}

func (r *Runtime) Limits() frame.Limits {
	return r.limits
}

func (r *Runtime) Supports(version uint8) bool {
	_, ok := r.versions[version]
	return ok
}
