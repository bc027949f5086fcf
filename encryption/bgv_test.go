package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBGV(t *testing.T, depth int) *BGVScheme {
	t.Helper()
	s, err := NewBGVScheme(BGVConfig{MultiplicativeDepth: depth})
	require.NoError(t, err)
	require.NoError(t, s.GenerateKeys())
	return s
}

func TestBGVRejectsBadDepth(t *testing.T) {
	_, err := NewBGVScheme(BGVConfig{MultiplicativeDepth: 5})
	assert.ErrorIs(t, err, ErrParameter)
}

func TestBGVEncryptDecryptRoundTrip(t *testing.T) {
	s := newTestBGV(t, 1)

	values := []int64{10, 20, 30, 40, 50}
	ct, err := s.Encrypt(values)
	require.NoError(t, err)

	decrypted, err := s.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, values, decrypted[:len(values)])
}

func TestBGVAdd(t *testing.T) {
	s := newTestBGV(t, 1)

	ct1, err := s.Encrypt([]int64{10, 20, 30, 40, 50})
	require.NoError(t, err)
	ct2, err := s.Encrypt([]int64{5, 10, 15, 20, 25})
	require.NoError(t, err)

	sum, err := s.Add(ct1, ct2)
	require.NoError(t, err)

	decrypted, err := s.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, []int64{15, 30, 45, 60, 75}, decrypted[:5])
}

func TestBGVMultiplyConsumesDepth(t *testing.T) {
	s := newTestBGV(t, 1)

	ct1, err := s.Encrypt([]int64{10, 20})
	require.NoError(t, err)
	ct2, err := s.Encrypt([]int64{2, 3})
	require.NoError(t, err)

	product, err := s.Multiply(ct1, ct2)
	require.NoError(t, err)

	decrypted, err := s.Decrypt(product)
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 60}, decrypted[:2])

	// The rescale dropped the product to the last level, so a second
	// multiplication has no level left to consume.
	level, err := s.NoiseHeadroom(product)
	require.NoError(t, err)
	assert.Zero(t, level)

	_, err = s.Multiply(product, product)
	assert.ErrorIs(t, err, ErrDepthExhausted)
}

func TestBGVDepthTwoAllowsChainedMultiply(t *testing.T) {
	s := newTestBGV(t, 2)

	ct1, err := s.Encrypt([]int64{2, 3})
	require.NoError(t, err)
	ct2, err := s.Encrypt([]int64{4, 5})
	require.NoError(t, err)

	first, err := s.Multiply(ct1, ct2)
	require.NoError(t, err)
	second, err := s.Multiply(first, first)
	require.NoError(t, err)

	decrypted, err := s.Decrypt(second)
	require.NoError(t, err)
	assert.Equal(t, []int64{64, 225}, decrypted[:2])
}

func TestBGVCapabilities(t *testing.T) {
	s := newTestBGV(t, 1)
	assert.True(t, s.SupportsBatching())
	assert.True(t, s.SupportsMultiplication())
	assert.Greater(t, s.SlotCount(), 1)
}
