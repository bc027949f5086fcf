package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hebench-backend/encryption"
)

// Every ciphertext handed out by a session carries the session id as an
// envelope prefix, so an operand minted under one key pair can never be
// fed to another session's evaluator.
const sessionIDLength = 8

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCiphertextMismatch = errors.New("ciphertext does not belong to this session")
)

// Session binds one backend instance to its keys. Scheme instances are
// not safe for concurrent evaluation, so every operation on a session
// holds its mutex.
type Session struct {
	ID        string
	Library   string
	Scheme    encryption.HomomorphicScheme
	CreatedAt time.Time

	mu sync.Mutex
}

// Store holds the live sessions keyed by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create builds a backend instance, generates its keys and registers the
// session. Key generation runs outside the store lock; if the context
// is done by the time it finishes, the session is discarded and never
// becomes visible. Returns the new session and its serialized public key.
func (s *Store) Create(ctx context.Context, library string, polyModulusDegree int) (*Session, []byte, error) {
	scheme, err := encryption.NewScheme(library, polyModulusDegree)
	if err != nil {
		return nil, nil, err
	}
	if err := scheme.GenerateKeys(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	publicKey, err := scheme.PublicKeyBytes()
	if err != nil {
		return nil, nil, err
	}

	session := &Session{
		Library:   library,
		Scheme:    scheme,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := uuid.New().String()[:sessionIDLength]
		if _, taken := s.sessions[id]; !taken {
			session.ID = id
			break
		}
	}
	s.sessions[session.ID] = session

	return session, publicKey, nil
}

// Get returns the session for id, or ErrSessionNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return session, nil
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Encrypt encrypts values under the session's public key and seals the
// result into the session's envelope.
func (s *Store) Encrypt(sessionID string, values []int64) ([]byte, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	ct, err := session.Scheme.Encrypt(values)
	if err != nil {
		return nil, err
	}
	return sealCiphertext(session.ID, ct), nil
}

// Decrypt opens the envelope and decrypts with the session's secret key.
func (s *Store) Decrypt(sessionID string, ciphertext []byte) ([]int64, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	ct, err := openCiphertext(session.ID, ciphertext)
	if err != nil {
		return nil, err
	}
	return session.Scheme.Decrypt(ct)
}

// Add applies homomorphic addition to two operands of the session.
func (s *Store) Add(sessionID string, ciphertext1, ciphertext2 []byte) ([]byte, error) {
	return s.binaryOp(sessionID, ciphertext1, ciphertext2, func(scheme encryption.HomomorphicScheme, c1, c2 []byte) ([]byte, error) {
		return scheme.Add(c1, c2)
	})
}

// Multiply applies homomorphic multiplication to two operands of the
// session.
func (s *Store) Multiply(sessionID string, ciphertext1, ciphertext2 []byte) ([]byte, error) {
	return s.binaryOp(sessionID, ciphertext1, ciphertext2, func(scheme encryption.HomomorphicScheme, c1, c2 []byte) ([]byte, error) {
		return scheme.Multiply(c1, c2)
	})
}

func (s *Store) binaryOp(sessionID string, ciphertext1, ciphertext2 []byte, op func(encryption.HomomorphicScheme, []byte, []byte) ([]byte, error)) ([]byte, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	c1, err := openCiphertext(session.ID, ciphertext1)
	if err != nil {
		return nil, err
	}
	c2, err := openCiphertext(session.ID, ciphertext2)
	if err != nil {
		return nil, err
	}
	result, err := op(session.Scheme, c1, c2)
	if err != nil {
		return nil, err
	}
	return sealCiphertext(session.ID, result), nil
}

func sealCiphertext(sessionID string, ct []byte) []byte {
	sealed := make([]byte, 0, sessionIDLength+len(ct))
	sealed = append(sealed, sessionID...)
	return append(sealed, ct...)
}

func openCiphertext(sessionID string, sealed []byte) ([]byte, error) {
	if len(sealed) <= sessionIDLength {
		return nil, fmt.Errorf("%w: ciphertext too short to carry a session tag", ErrCiphertextMismatch)
	}
	if string(sealed[:sessionIDLength]) != sessionID {
		return nil, fmt.Errorf("%w: operand tagged for session %q", ErrCiphertextMismatch, string(sealed[:sessionIDLength]))
	}
	return sealed[sessionIDLength:], nil
}
