package portapack

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

// SecretStore is the secret-store capability contract, keyed by
// (service, account) pairs like a persistent OS secret manager.
type SecretStore interface {
	Provider
	Get(service, account string) (string, bool, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
	List(service string) ([]string, error)
}

// keyringStore is the native provider backed by the OS keyring. The backing
// daemon (Secret Service, Keychain, wincred) may be missing on headless
// hosts, which the probe detects.
type keyringStore struct {
	mu       sync.Mutex
	accounts map[string]map[string]struct{} // service -> accounts seen this session
}

func newKeyringStore() (SecretStore, error) {
	const probeService = "portapack-probe"
	if err := keyring.Set(probeService, "probe", "probe"); err != nil {
		return nil, fmt.Errorf("os keyring unavailable: %w", err)
	}
	if err := keyring.Delete(probeService, "probe"); err != nil && err != keyring.ErrNotFound {
		warnf("Could not remove keyring probe entry %s/probe: %v\n", probeService, err)
	}
	return &keyringStore{accounts: make(map[string]map[string]struct{})}, nil
}

func (k *keyringStore) Capability() string { return CapSecretStore }
func (k *keyringStore) Variant() Variant   { return VariantNative }

func (k *keyringStore) Get(service, account string) (string, bool, error) {
	secret, err := keyring.Get(service, account)
	if err == keyring.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return secret, true, nil
}

func (k *keyringStore) Set(service, account, secret string) error {
	if err := keyring.Set(service, account, secret); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.accounts[service] == nil {
		k.accounts[service] = make(map[string]struct{})
	}
	k.accounts[service][account] = struct{}{}
	return nil
}

func (k *keyringStore) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if err == keyring.ErrNotFound {
		err = nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.accounts[service], account)
	return err
}

// List enumerates accounts written through this process; the OS keyring API
// has no portable enumeration.
func (k *keyringStore) List(service string) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var out []string
	for account := range k.accounts[service] {
		out = append(out, account)
	}
	sort.Strings(out)
	return out, nil
}

// memorySecretStore matches the keyring semantics except that state does not
// survive process restart.
type memorySecretStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func newMemorySecretStore() *memorySecretStore {
	return &memorySecretStore{secrets: make(map[string]string)}
}

func secretKey(service, account string) string {
	return service + "\x00" + account
}

func (m *memorySecretStore) Capability() string { return CapSecretStore }
func (m *memorySecretStore) Variant() Variant   { return VariantPure }

func (m *memorySecretStore) Get(service, account string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[secretKey(service, account)]
	return secret, ok, nil
}

func (m *memorySecretStore) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[secretKey(service, account)] = secret
	return nil
}

func (m *memorySecretStore) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, secretKey(service, account))
	return nil
}

func (m *memorySecretStore) List(service string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := service + "\x00"
	var out []string
	for key := range m.secrets {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, key[len(prefix):])
		}
	}
	sort.Strings(out)
	return out, nil
}
