package encryption

import (
	"errors"
	"fmt"
)

// Typed failure classes for everything that can go wrong inside a backend.
// Native engine faults are converted into one of these at the adapter
// boundary; callers match with errors.Is.
var (
	ErrUnsupportedLibrary = errors.New("unsupported library")
	ErrParameter          = errors.New("invalid scheme parameters")
	ErrKeyGen             = errors.New("key generation failed")
	ErrEncoding           = errors.New("encoding failed")
	ErrDecryption         = errors.New("decryption failed")
	ErrOperation          = errors.New("homomorphic operation failed")
	ErrDepthExhausted     = errors.New("multiplicative depth exhausted")
	ErrUnimplemented      = errors.New("operation not supported by this backend")
)

// Known backend variants. The names double as the wire-level "library" field.
const (
	LibraryBFV      = "bfv"
	LibraryPaillier = "paillier"
	LibraryBGV      = "bgv"
)

// Libraries returns the known backend names in a stable order.
func Libraries() []string {
	return []string{LibraryBFV, LibraryPaillier, LibraryBGV}
}

// Supported reports whether library names a known backend variant.
func Supported(library string) bool {
	switch library {
	case LibraryBFV, LibraryPaillier, LibraryBGV:
		return true
	}
	return false
}

// HomomorphicScheme is the capability contract every backend adapter
// implements. A scheme instance owns its context (parameters and derived
// evaluation material) and, after GenerateKeys, its key pair; ciphertexts
// it produces are only valid as operands for the same instance.
type HomomorphicScheme interface {
	// Identity and capabilities
	Name() string
	SupportsBatching() bool
	SupportsMultiplication() bool
	SlotCount() int

	// GenerateKeys materializes the key pair together with any
	// relinearization/evaluation material multiplication will need.
	GenerateKeys() error
	PublicKeyBytes() ([]byte, error)

	// Encode runs one encoding cycle without encrypting; used for
	// diagnostics and benchmarking. Encrypt encodes internally.
	Encode(values []int64) error
	Encrypt(values []int64) ([]byte, error)
	Decrypt(ciphertext []byte) ([]int64, error)

	Add(ciphertext1, ciphertext2 []byte) ([]byte, error)
	Multiply(ciphertext1, ciphertext2 []byte) ([]byte, error)

	// NoiseHeadroom reports a backend-specific remaining-capacity metric
	// for a ciphertext. Backends without such a metric return
	// ErrUnimplemented.
	NoiseHeadroom(ciphertext []byte) (int, error)
}

// NewScheme creates a backend instance for the given library name,
// applying that variant's parameter defaults. polyModulusDegree is only
// meaningful for backends with a configurable ring degree; the others
// ignore it, matching their fixed native parameter surface.
func NewScheme(library string, polyModulusDegree int) (HomomorphicScheme, error) {
	switch library {
	case LibraryBFV:
		return NewBFVScheme(BFVConfig{PolyModulusDegree: polyModulusDegree})
	case LibraryPaillier:
		return NewPaillierScheme(PaillierConfig{})
	case LibraryBGV:
		return NewBGVScheme(BGVConfig{})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedLibrary, library)
}

// guard converts a panic escaping a native engine call into a typed
// error so a fault can never crash the dispatcher. Use as
// defer guard(&err, ErrOperation).
func guard(err *error, class error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: native engine panic: %v", class, r)
	}
}
