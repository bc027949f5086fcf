package encryption

import (
	"crypto/rand"
	"fmt"
	"math/big"

	paillier "github.com/roasbeef/go-go-gadget-paillier"
)

// PaillierConfig holds the parameter surface of the Paillier backend: the
// modulus bit length. Zero selects the default of 2048 bits.
type PaillierConfig struct {
	KeyBits int
}

// PaillierScheme is the single-value backend. It packs exactly one
// signed integer per ciphertext: Encrypt uses only values[0] and
// silently discards the rest, which callers must account for. Negative
// values are centered modulo N (encrypted as N+v, re-centered on
// decrypt). The scheme is additively homomorphic only; Multiply reports
// ErrUnimplemented.
type PaillierScheme struct {
	keyBits    int
	privateKey *paillier.PrivateKey
}

func NewPaillierScheme(cfg PaillierConfig) (*PaillierScheme, error) {
	bits := cfg.KeyBits
	if bits == 0 {
		bits = 2048
	}
	if bits < 1024 || bits > 4096 {
		return nil, fmt.Errorf("%w: key size %d out of range [1024,4096]", ErrParameter, bits)
	}
	return &PaillierScheme{keyBits: bits}, nil
}

func (p *PaillierScheme) Name() string                 { return LibraryPaillier }
func (p *PaillierScheme) SupportsBatching() bool       { return false }
func (p *PaillierScheme) SupportsMultiplication() bool { return false }
func (p *PaillierScheme) SlotCount() int               { return 1 }

func (p *PaillierScheme) GenerateKeys() (err error) {
	defer guard(&err, ErrKeyGen)

	p.privateKey, err = paillier.GenerateKey(rand.Reader, p.keyBits)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyGen, err)
	}
	return nil
}

func (p *PaillierScheme) PublicKeyBytes() ([]byte, error) {
	if p.privateKey == nil {
		return nil, fmt.Errorf("%w: public key not generated", ErrKeyGen)
	}
	return p.privateKey.PublicKey.N.Bytes(), nil
}

func (p *PaillierScheme) Encode(values []int64) error {
	if _, err := p.checkValue(values); err != nil {
		return err
	}
	return nil
}

func (p *PaillierScheme) Encrypt(values []int64) (data []byte, err error) {
	defer guard(&err, ErrEncoding)

	if p.privateKey == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	if _, err := p.checkValue(values); err != nil {
		return nil, err
	}
	v := big.NewInt(values[0])
	if v.Sign() < 0 {
		v.Add(v, p.privateKey.PublicKey.N)
	}
	data, err = paillier.Encrypt(&p.privateKey.PublicKey, v.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return data, nil
}

func (p *PaillierScheme) Decrypt(ciphertext []byte) (values []int64, err error) {
	defer guard(&err, ErrDecryption)

	if p.privateKey == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrDecryption)
	}
	plaintext, err := paillier.Decrypt(p.privateKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	v := new(big.Int).SetBytes(plaintext)
	// Values above N/2 are the centered image of negatives.
	half := new(big.Int).Rsh(p.privateKey.PublicKey.N, 1)
	if v.Cmp(half) > 0 {
		v.Sub(v, p.privateKey.PublicKey.N)
	}
	if !v.IsInt64() {
		return nil, fmt.Errorf("%w: plaintext overflows int64", ErrDecryption)
	}
	return []int64{v.Int64()}, nil
}

// Add is scalar addition of the two packed values.
func (p *PaillierScheme) Add(ciphertext1, ciphertext2 []byte) (data []byte, err error) {
	defer guard(&err, ErrOperation)

	if p.privateKey == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	if len(ciphertext1) == 0 || len(ciphertext2) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrOperation)
	}
	return paillier.AddCipher(&p.privateKey.PublicKey, ciphertext1, ciphertext2), nil
}

// Multiply is not part of this backend's build: Paillier admits no
// ciphertext-by-ciphertext product.
func (p *PaillierScheme) Multiply(ciphertext1, ciphertext2 []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: paillier is additively homomorphic only", ErrUnimplemented)
}

// NoiseHeadroom is meaningless for Paillier: there is no consumable
// noise budget.
func (p *PaillierScheme) NoiseHeadroom(ciphertext []byte) (int, error) {
	return 0, fmt.Errorf("%w: paillier exposes no capacity metric", ErrUnimplemented)
}

func (p *PaillierScheme) checkValue(values []int64) (*big.Int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty value vector", ErrEncoding)
	}
	return big.NewInt(values[0]), nil
}
