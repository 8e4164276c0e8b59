package portapack

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// PasswordHasher is the password-hasher capability contract.
type PasswordHasher interface {
	Provider
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
	GenSalt() (string, error)
}

func randomSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// newFallbackHasher builds the non-native tier of the hashing cascade: the
// pure software hasher if it passes its self-test, else the identity hasher.
// It never fails.
func newFallbackHasher() PasswordHasher {
	if h, err := newScryptHasher(); err == nil {
		return h
	} else {
		warnf("Pure password hasher unavailable: %v\n", err)
	}
	return &identityHasher{}
}

// bcryptHasher is the first tier. Probed with a self-test round trip so a
// broken build degrades at resolution time, not at first use.
type bcryptHasher struct{}

func newBcryptHasher() (PasswordHasher, error) {
	h := &bcryptHasher{}
	sum, err := h.Hash("probe")
	if err != nil {
		return nil, fmt.Errorf("bcrypt self-test: %w", err)
	}
	ok, err := h.Compare("probe", sum)
	if err != nil || !ok {
		return nil, fmt.Errorf("bcrypt self-test mismatch: %v", err)
	}
	return h, nil
}

func (h *bcryptHasher) Capability() string { return CapPasswordHasher }
func (h *bcryptHasher) Variant() Variant   { return VariantNative }

func (h *bcryptHasher) Hash(password string) (string, error) {
	sum, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(sum), nil
}

func (h *bcryptHasher) Compare(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (h *bcryptHasher) GenSalt() (string, error) { return randomSalt() }

// scryptHasher is the pure-software second tier with the same one-way
// semantics. Hash format: scrypt$<salt-hex>$<key-hex>.
type scryptHasher struct{}

func newScryptHasher() (PasswordHasher, error) {
	h := &scryptHasher{}
	sum, err := h.Hash("probe")
	if err != nil {
		return nil, fmt.Errorf("scrypt self-test: %w", err)
	}
	ok, err := h.Compare("probe", sum)
	if err != nil || !ok {
		return nil, fmt.Errorf("scrypt self-test mismatch: %v", err)
	}
	return h, nil
}

func (h *scryptHasher) Capability() string { return CapPasswordHasher }
func (h *scryptHasher) Variant() Variant   { return VariantPure }

func (h *scryptHasher) Hash(password string) (string, error) {
	salt, err := randomSalt()
	if err != nil {
		return "", err
	}
	key, err := h.derive(password, salt)
	if err != nil {
		return "", err
	}
	return "scrypt$" + salt + "$" + key, nil
}

func (h *scryptHasher) Compare(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != "scrypt" {
		return false, fmt.Errorf("malformed scrypt hash")
	}
	key, err := h.derive(password, parts[1])
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(parts[2])) == 1, nil
}

func (h *scryptHasher) GenSalt() (string, error) { return randomSalt() }

func (h *scryptHasher) derive(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(password), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// identityHasher is the terminal tier: the "hash" of a value is the value
// itself and compare is plain equality. It is explicitly insecure and exists
// only so the host application does not crash when no hashing capability is
// available at all. The registry flags it at error severity.
type identityHasher struct{}

func (h *identityHasher) Capability() string { return CapPasswordHasher }
func (h *identityHasher) Variant() Variant   { return VariantInsecureIdentity }

func (h *identityHasher) Hash(password string) (string, error) {
	return password, nil
}

func (h *identityHasher) Compare(password, hash string) (bool, error) {
	return password == hash, nil
}

func (h *identityHasher) GenSalt() (string, error) { return randomSalt() }
