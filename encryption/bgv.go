package encryption

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"
)

// BGVConfig holds the parameter surface of the BGV backend: a plaintext
// modulus and a multiplicative-depth bound. Zero values select the
// defaults (modulus 65537, depth 2). The ring degree is derived from the
// requested depth.
type BGVConfig struct {
	PlaintextModulus    uint64
	MultiplicativeDepth int
}

const maxBGVDepth = 3

// BGVScheme wraps the lattigo BGV implementation. Batch-capable, with an
// explicit depth budget: each multiplication consumes one level of the
// modulus chain, and exhaustion is reported as a distinct error instead
// of returning an undecryptable result.
type BGVScheme struct {
	params    bgv.Parameters
	depth     int
	encoder   *bgv.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
	evaluator *bgv.Evaluator
	sk        *rlwe.SecretKey
	pk        *rlwe.PublicKey
}

// NewBGVScheme creates the BGV context with a modulus chain long enough
// for the configured multiplicative depth.
func NewBGVScheme(cfg BGVConfig) (*BGVScheme, error) {
	depth := cfg.MultiplicativeDepth
	if depth == 0 {
		depth = 2
	}
	if depth < 1 || depth > maxBGVDepth {
		return nil, fmt.Errorf("%w: multiplicative depth %d out of range [1,%d]", ErrParameter, depth, maxBGVDepth)
	}
	t := cfg.PlaintextModulus
	if t == 0 {
		t = 65537
	}

	// One prime per multiplication plus the base level; the larger ring
	// keeps the deeper chain within the degree's security bound.
	logN := 13
	if depth > 2 {
		logN = 14
	}
	logQ := []int{55}
	for i := 0; i < depth; i++ {
		logQ = append(logQ, 40)
	}

	params, err := bgv.NewParametersFromLiteral(bgv.ParametersLiteral{
		LogN:             logN,
		LogQ:             logQ,
		LogP:             []int{60},
		PlaintextModulus: t,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParameter, err)
	}

	return &BGVScheme{
		params:  params,
		depth:   depth,
		encoder: bgv.NewEncoder(params),
	}, nil
}

func (s *BGVScheme) Name() string                 { return LibraryBGV }
func (s *BGVScheme) SupportsBatching() bool       { return true }
func (s *BGVScheme) SupportsMultiplication() bool { return true }
func (s *BGVScheme) SlotCount() int               { return s.params.MaxSlots() }

// GenerateKeys creates the key pair and relinearization material, then
// builds the encryptor, decryptor and evaluator bound to them.
func (s *BGVScheme) GenerateKeys() (err error) {
	defer guard(&err, ErrKeyGen)

	kgen := rlwe.NewKeyGenerator(s.params)
	s.sk, s.pk = kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(s.sk)
	evk := rlwe.NewMemEvaluationKeySet(rlk)

	s.encryptor = rlwe.NewEncryptor(s.params, s.pk)
	s.decryptor = rlwe.NewDecryptor(s.params, s.sk)
	s.evaluator = bgv.NewEvaluator(s.params, evk)
	return nil
}

func (s *BGVScheme) PublicKeyBytes() ([]byte, error) {
	if s.pk == nil {
		return nil, fmt.Errorf("%w: public key not generated", ErrKeyGen)
	}
	return s.pk.MarshalBinary()
}

func (s *BGVScheme) Encode(values []int64) (err error) {
	defer guard(&err, ErrEncoding)

	if len(values) == 0 {
		return fmt.Errorf("%w: empty value vector", ErrEncoding)
	}
	if len(values) > s.params.MaxSlots() {
		values = values[:s.params.MaxSlots()]
	}
	pt := bgv.NewPlaintext(s.params, s.params.MaxLevel())
	if err := s.encoder.Encode(values, pt); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return nil
}

func (s *BGVScheme) Encrypt(values []int64) (data []byte, err error) {
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

	pt := bgv.NewPlaintext(s.params, s.params.MaxLevel())
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

func (s *BGVScheme) Decrypt(ciphertext []byte) (values []int64, err error) {
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

func (s *BGVScheme) Add(ciphertext1, ciphertext2 []byte) (data []byte, err error) {
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

// Multiply relinearizes and rescales after the tensor product, so the
// result stays decryptable and usable as an operand until the modulus
// chain runs out. Operands already at the last level are rejected with
// ErrDepthExhausted.
func (s *BGVScheme) Multiply(ciphertext1, ciphertext2 []byte) (data []byte, err error) {
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
	if c1.Level() == 0 || c2.Level() == 0 {
		return nil, fmt.Errorf("%w: no levels left after %d multiplications", ErrDepthExhausted, s.depth)
	}
	res, err := s.evaluator.MulRelinNew(c1, c2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	if err := s.evaluator.Rescale(res, res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	data, err = res.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperation, err)
	}
	return data, nil
}

// NoiseHeadroom reports the levels remaining before the depth budget is
// exhausted.
func (s *BGVScheme) NoiseHeadroom(ciphertext []byte) (int, error) {
	ct, err := unmarshalCiphertext(ciphertext, ErrOperation)
	if err != nil {
		return 0, err
	}
	return ct.Level(), nil
}
