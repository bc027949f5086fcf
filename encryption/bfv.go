package encryption

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"
)

// BFVConfig holds the parameter surface of the BFV backend: a polynomial
// modulus degree and a plaintext modulus. Zero values select the defaults
// (degree 8192, modulus 65537).
type BFVConfig struct {
	PolyModulusDegree int
	PlaintextModulus  uint64
}

// moduli chains per supported ring degree, sized to the usual security
// bound for that degree.
var bfvModuli = map[int]struct{ logQ, logP []int }{
	4096:  {logQ: []int{39, 31}, logP: []int{31}},
	8192:  {logQ: []int{54, 54, 54}, logP: []int{55}},
	16384: {logQ: []int{56, 55, 55, 54, 54, 54}, logP: []int{55, 55}},
}

// BFVScheme wraps the lattigo BFV implementation behind the
// HomomorphicScheme contract. It is batch-capable: a full vector is
// packed into the ciphertext slots.
type BFVScheme struct {
	params    bfv.Parameters
	encoder   *bfv.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
	evaluator *bfv.Evaluator
	sk        *rlwe.SecretKey
	pk        *rlwe.PublicKey
}

// NewBFVScheme creates the BFV context. Keys are not generated yet;
// GenerateKeys must run before any cryptographic operation.
func NewBFVScheme(cfg BFVConfig) (*BFVScheme, error) {
	degree := cfg.PolyModulusDegree
	if degree == 0 {
		degree = 8192
	}
	moduli, ok := bfvModuli[degree]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported poly_modulus_degree %d (want 4096, 8192 or 16384)", ErrParameter, degree)
	}
	t := cfg.PlaintextModulus
	if t == 0 {
		t = 65537
	}

	logN := 0
	for d := degree; d > 1; d >>= 1 {
		logN++
	}

	params, err := bfv.NewParametersFromLiteral(bfv.ParametersLiteral{
		LogN:             logN,
		LogQ:             moduli.logQ,
		LogP:             moduli.logP,
		PlaintextModulus: t,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParameter, err)
	}

	return &BFVScheme{
		params:  params,
		encoder: bfv.NewEncoder(params),
	}, nil
}

func (s *BFVScheme) Name() string                 { return LibraryBFV }
func (s *BFVScheme) SupportsBatching() bool       { return true }
func (s *BFVScheme) SupportsMultiplication() bool { return true }
func (s *BFVScheme) SlotCount() int               { return s.params.MaxSlots() }

// GenerateKeys creates the key pair and the relinearization key needed
// by homomorphic multiplication, then builds the encryptor, decryptor
// and evaluator bound to them.
func (s *BFVScheme) GenerateKeys() (err error) {
	defer guard(&err, ErrKeyGen)

	kgen := bfv.NewKeyGenerator(s.params)
	s.sk, s.pk = kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(s.sk)
	evk := rlwe.NewMemEvaluationKeySet(rlk)

	s.encryptor = bfv.NewEncryptor(s.params, s.pk)
	s.decryptor = bfv.NewDecryptor(s.params, s.sk)
	s.evaluator = bfv.NewEvaluator(s.params, evk)
	return nil
}

func (s *BFVScheme) PublicKeyBytes() ([]byte, error) {
	if s.pk == nil {
		return nil, fmt.Errorf("%w: public key not generated", ErrKeyGen)
	}
	return s.pk.MarshalBinary()
}

// Encode packs values into a throwaway plaintext, truncating to the slot
// capacity. Used for diagnostics and benchmarking.
func (s *BFVScheme) Encode(values []int64) (err error) {
	defer guard(&err, ErrEncoding)

	if len(values) == 0 {
		return fmt.Errorf("%w: empty value vector", ErrEncoding)
	}
	if len(values) > s.params.MaxSlots() {
		values = values[:s.params.MaxSlots()]
	}
	pt := bfv.NewPlaintext(s.params, s.params.MaxLevel())
	if err := s.encoder.Encode(values, pt); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return nil
}

// Encrypt packs the vector into the ciphertext slots (truncated to slot
// capacity if oversized) and encrypts under the public key.
func (s *BFVScheme) Encrypt(values []int64) (data []byte, err error) {
	defer guard(&err, ErrEncoding)

	if s.encryptor == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty value vector", ErrEncoding)
	}
	if len(values) > s.params.MaxSlots() {
		values = values[:s.params.MaxSlots()]
	}

	pt := bfv.NewPlaintext(s.params, s.params.MaxLevel())
	if err := s.encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	ct, err := s.encryptor.EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	data, err = ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return data, nil
}

func (s *BFVScheme) Decrypt(ciphertext []byte) (values []int64, err error) {
	defer guard(&err, ErrDecryption)

	if s.decryptor == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	ct, err := unmarshalCiphertext(ciphertext, ErrDecryption)
	if err != nil {
		return nil, err
	}
	pt := s.decryptor.DecryptNew(ct)
	values = make([]int64, s.params.MaxSlots())
	if err := s.encoder.Decode(pt, values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return values, nil
}

// Add performs element-wise homomorphic addition.
func (s *BFVScheme) Add(ciphertext1, ciphertext2 []byte) (data []byte, err error) {
	defer guard(&err, ErrOperation)

	if s.evaluator == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	c1, err := unmarshalCiphertext(ciphertext1, ErrOperation)
	if err != nil {
		return nil, err
	}
	c2, err := unmarshalCiphertext(ciphertext2, ErrOperation)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluator.AddNew(c1, c2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	data, err = res.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	return data, nil
}

// Multiply performs element-wise homomorphic multiplication followed by
// relinearization, so the result stays a valid degree-1 operand. BFV is
// scale invariant; noise growth, not the modulus chain, bounds the
// usable depth.
func (s *BFVScheme) Multiply(ciphertext1, ciphertext2 []byte) (data []byte, err error) {
	defer guard(&err, ErrOperation)

	if s.evaluator == nil {
		return nil, fmt.Errorf("%w: keys not generated", ErrKeyGen)
	}
	c1, err := unmarshalCiphertext(ciphertext1, ErrOperation)
	if err != nil {
		return nil, err
	}
	c2, err := unmarshalCiphertext(ciphertext2, ErrOperation)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluator.MulRelinNew(c1, c2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	data, err = res.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	return data, nil
}

// NoiseHeadroom reports the levels remaining in the ciphertext's modulus
// chain. Diagnostic only.
func (s *BFVScheme) NoiseHeadroom(ciphertext []byte) (int, error) {
	ct, err := unmarshalCiphertext(ciphertext, ErrOperation)
	if err != nil {
		return 0, err
	}
	return ct.Level(), nil
}

func unmarshalCiphertext(data []byte, class error) (*rlwe.Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext: %v", class, err)
	}
	return ct, nil
}
