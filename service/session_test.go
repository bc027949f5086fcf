package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hebench-backend/encryption"
)

func newTestSession(t *testing.T) (*Store, *Session) {
	t.Helper()
	store := NewStore()
	session, publicKey, err := store.Create(context.Background(), encryption.LibraryBFV, 4096)
	require.NoError(t, err)
	require.NotEmpty(t, publicKey)
	require.Len(t, session.ID, sessionIDLength)
	return store, session
}

func TestCreateRejectsUnknownLibrary(t *testing.T) {
	store := NewStore()
	_, _, err := store.Create(context.Background(), "seal", 0)
	assert.ErrorIs(t, err, encryption.ErrUnsupportedLibrary)
	assert.Zero(t, store.Count())
}

func TestCreateCanceledContextLeavesNoSession(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Create(ctx, encryption.LibraryBFV, 4096)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Count())
}

func TestGetUnknownSession(t *testing.T) {
	store := NewStore()
	_, err := store.Get("deadbeef")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEncryptDecryptThroughStore(t *testing.T) {
	store, session := newTestSession(t)

	values := []int64{10, 20, 30, 40, 50}
	ct, err := store.Encrypt(session.ID, values)
	require.NoError(t, err)

	decrypted, err := store.Decrypt(session.ID, ct)
	require.NoError(t, err)
	assert.Equal(t, values, decrypted[:len(values)])
}

func TestAddThroughStore(t *testing.T) {
	store, session := newTestSession(t)

	ct1, err := store.Encrypt(session.ID, []int64{10, 20, 30, 40, 50})
	require.NoError(t, err)
	ct2, err := store.Encrypt(session.ID, []int64{5, 10, 15, 20, 25})
	require.NoError(t, err)

	sum, err := store.Add(session.ID, ct1, ct2)
	require.NoError(t, err)

	decrypted, err := store.Decrypt(session.ID, sum)
	require.NoError(t, err)
	assert.Equal(t, []int64{15, 30, 45, 60, 75}, decrypted[:5])
}

func TestMultiplyThroughStore(t *testing.T) {
	store, session := newTestSession(t)

	ct1, err := store.Encrypt(session.ID, []int64{10, 20})
	require.NoError(t, err)
	ct2, err := store.Encrypt(session.ID, []int64{2, 3})
	require.NoError(t, err)

	product, err := store.Multiply(session.ID, ct1, ct2)
	require.NoError(t, err)

	decrypted, err := store.Decrypt(session.ID, product)
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 60}, decrypted[:2])
}

func TestCrossSessionOperandRejected(t *testing.T) {
	store, first := newTestSession(t)
	second, _, err := store.Create(context.Background(), encryption.LibraryBFV, 4096)
	require.NoError(t, err)

	ct1, err := store.Encrypt(first.ID, []int64{1, 2, 3})
	require.NoError(t, err)
	ct2, err := store.Encrypt(second.ID, []int64{4, 5, 6})
	require.NoError(t, err)

	_, err = store.Add(first.ID, ct1, ct2)
	assert.ErrorIs(t, err, ErrCiphertextMismatch)

	_, err = store.Decrypt(second.ID, ct1)
	assert.ErrorIs(t, err, ErrCiphertextMismatch)
}

func TestUntaggedOperandRejected(t *testing.T) {
	store, session := newTestSession(t)

	_, err := store.Decrypt(session.ID, []byte("short"))
	assert.ErrorIs(t, err, ErrCiphertextMismatch)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	store := NewStore()

	const n = 4
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, _, err := store.Create(context.Background(), encryption.LibraryBFV, 4096)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = session.ID
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, n, store.Count())
	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate session id %q", id)
		seen[id] = true
	}
}
