package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaillier(t *testing.T) *PaillierScheme {
	t.Helper()
	// 1024-bit keys keep key generation fast in tests.
	s, err := NewPaillierScheme(PaillierConfig{KeyBits: 1024})
	require.NoError(t, err)
	require.NoError(t, s.GenerateKeys())
	return s
}

func TestPaillierRejectsBadKeySize(t *testing.T) {
	_, err := NewPaillierScheme(PaillierConfig{KeyBits: 512})
	assert.ErrorIs(t, err, ErrParameter)
}

func TestPaillierCapabilities(t *testing.T) {
	s := newTestPaillier(t)
	assert.False(t, s.SupportsBatching())
	assert.False(t, s.SupportsMultiplication())
	assert.Equal(t, 1, s.SlotCount())
}

func TestPaillierEncryptDecryptRoundTrip(t *testing.T) {
	s := newTestPaillier(t)

	ct, err := s.Encrypt([]int64{42})
	require.NoError(t, err)

	decrypted, err := s.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, decrypted)
}

func TestPaillierEncryptUsesFirstValueOnly(t *testing.T) {
	s := newTestPaillier(t)

	ct, err := s.Encrypt([]int64{10, 20, 30})
	require.NoError(t, err)

	decrypted, err := s.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, decrypted)
}

func TestPaillierAdd(t *testing.T) {
	s := newTestPaillier(t)

	ct1, err := s.Encrypt([]int64{10})
	require.NoError(t, err)
	ct2, err := s.Encrypt([]int64{5})
	require.NoError(t, err)

	sum, err := s.Add(ct1, ct2)
	require.NoError(t, err)

	decrypted, err := s.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, []int64{15}, decrypted)
}

func TestPaillierNegativeRoundTrip(t *testing.T) {
	s := newTestPaillier(t)

	ct, err := s.Encrypt([]int64{-7})
	require.NoError(t, err)

	decrypted, err := s.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []int64{-7}, decrypted)
}

func TestPaillierSignedAdd(t *testing.T) {
	s := newTestPaillier(t)

	ct1, err := s.Encrypt([]int64{10})
	require.NoError(t, err)
	ct2, err := s.Encrypt([]int64{-4})
	require.NoError(t, err)

	sum, err := s.Add(ct1, ct2)
	require.NoError(t, err)

	decrypted, err := s.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, decrypted)

	// Sums that stay negative re-center below zero.
	ct3, err := s.Encrypt([]int64{-5})
	require.NoError(t, err)
	sum, err = s.Add(ct2, ct3)
	require.NoError(t, err)
	decrypted, err = s.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, []int64{-9}, decrypted)
}

func TestPaillierRejectsEmptyVector(t *testing.T) {
	s := newTestPaillier(t)
	_, err := s.Encrypt(nil)
	assert.ErrorIs(t, err, ErrEncoding)
	assert.ErrorIs(t, s.Encode(nil), ErrEncoding)
}

func TestPaillierMultiplyUnimplemented(t *testing.T) {
	s := newTestPaillier(t)

	ct1, err := s.Encrypt([]int64{2})
	require.NoError(t, err)
	ct2, err := s.Encrypt([]int64{3})
	require.NoError(t, err)

	_, err = s.Multiply(ct1, ct2)
	assert.ErrorIs(t, err, ErrUnimplemented)

	_, err = s.NoiseHeadroom(ct1)
	assert.ErrorIs(t, err, ErrUnimplemented)
}

func TestPaillierPublicKeyBytes(t *testing.T) {
	s := newTestPaillier(t)
	pk, err := s.PublicKeyBytes()
	require.NoError(t, err)
	assert.NotEmpty(t, pk)
}
