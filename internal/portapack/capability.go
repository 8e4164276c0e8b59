package portapack

import (
	"fmt"
	"sync"
)

// Capability names application code resolves through the registry.
const (
	CapStructuredStorage = "structured-storage"
	CapSecretStore       = "secret-store"
	CapPasswordHasher    = "password-hasher"
)

// Variant tags which provider tier is active, so degraded modes are
// observable instead of silent.
type Variant string

const (
	VariantNative           Variant = "native"
	VariantPure             Variant = "pure"
	VariantInsecureIdentity Variant = "insecure-identity"
)

// Provider is the minimal contract every capability implementation exposes.
// Callers type-assert to StructuredStorage, SecretStore or PasswordHasher.
type Provider interface {
	Capability() string
	Variant() Variant
}

// capabilityDescriptor pairs a lazily-probed native provider with an eagerly
// constructible fallback that must never fail.
type capabilityDescriptor struct {
	name          string
	resolveNative func() (Provider, error)
	fallback      func() Provider

	once   sync.Once
	active Provider
}

// Registry resolves named capabilities to the best available provider.
// Resolution is attempted at most once per descriptor; the outcome is cached
// for the registry's lifetime.
type Registry struct {
	caps map[string]*capabilityDescriptor
}

func NewRegistry() *Registry {
	return &Registry{caps: map[string]*capabilityDescriptor{
		CapStructuredStorage: {
			name:          CapStructuredStorage,
			resolveNative: func() (Provider, error) { return newSQLiteStore() },
			fallback:      func() Provider { return newNullStore() },
		},
		CapSecretStore: {
			name:          CapSecretStore,
			resolveNative: func() (Provider, error) { return newKeyringStore() },
			fallback:      func() Provider { return newMemorySecretStore() },
		},
		CapPasswordHasher: {
			name:          CapPasswordHasher,
			resolveNative: func() (Provider, error) { return newBcryptHasher() },
			fallback:      func() Provider { return newFallbackHasher() },
		},
	}}
}

// Resolve returns a provider for name. For the three registered capabilities
// it never fails: if the native provider cannot be acquired, the fallback is
// returned instead. Unknown names are an error.
func (r *Registry) Resolve(name string) (Provider, error) {
	desc, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("unknown capability %q", name)
	}

	desc.once.Do(func() {
		p, err := desc.resolveNative()
		if err != nil {
			warnf("Native %s unavailable, using fallback: %v\n", desc.name, err)
			p = desc.fallback()
		}
		if p.Variant() == VariantInsecureIdentity {
			colError.Printf("SECURITY: %s degraded to identity mode, hashes are NOT protected\n", desc.name)
		}
		debugf("Capability %s resolved (variant=%s)\n", desc.name, p.Variant())
		desc.active = p
	})
	return desc.active, nil
}

// ActiveVariants resolves every registered capability and reports which
// variant is live. Used by the build summary.
func (r *Registry) ActiveVariants() map[string]Variant {
	out := make(map[string]Variant, len(r.caps))
	for name := range r.caps {
		p, err := r.Resolve(name)
		if err != nil {
			continue
		}
		out[name] = p.Variant()
	}
	return out
}
