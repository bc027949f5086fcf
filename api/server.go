package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/sha3"

	"hebench-backend/encryption"
	"hebench-backend/service"
	"hebench-backend/storage"
)

// Server exposes the homomorphic encryption backends over a JSON HTTP
// API. Ciphertext fields are []byte and travel base64-encoded, as
// encoding/json does by default.
type Server struct {
	addr     string
	sessions *service.Store
	history  *storage.JSONStore
	metrics  *service.MetricsCollector
	mux      *http.ServeMux
}

func NewServer(addr string, sessions *service.Store, history *storage.JSONStore) *Server {
	s := &Server{
		addr:     addr,
		sessions: sessions,
		history:  history,
		metrics:  service.NewMetricsCollector(),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/keys", s.handleGenerateKeys)
	s.mux.HandleFunc("/api/encrypt", s.handleEncrypt)
	s.mux.HandleFunc("/api/decrypt", s.handleDecrypt)
	s.mux.HandleFunc("/api/add", s.handleAdd)
	s.mux.HandleFunc("/api/multiply", s.handleMultiply)
	s.mux.HandleFunc("/api/benchmark", s.handleBenchmark)
	s.mux.HandleFunc("/api/benchmark/compare", s.handleBenchmarkCompare)
	s.mux.HandleFunc("/api/benchmark/history", s.handleBenchmarkHistory)
	s.mux.HandleFunc("/api/metrics", s.handleMetrics)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	return s
}

// Handler returns the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving the API until the listener fails.
func (s *Server) Start() error {
	log.Printf("API server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

type GenerateKeysRequest struct {
	Library           string `json:"library"`
	PolyModulusDegree int    `json:"poly_modulus_degree"`
}

type GenerateKeysResponse struct {
	SessionID string `json:"session_id"`
	Library   string `json:"library"`
	PublicKey []byte `json:"public_key"`
	SlotCount int    `json:"slot_count"`
	Status    string `json:"status"`
}

func (s *Server) handleGenerateKeys(w http.ResponseWriter, r *http.Request) {
	var req GenerateKeysRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Library == "" {
		s.writeError(w, errors.New("library is required"), http.StatusBadRequest)
		return
	}

	start := time.Now()
	session, publicKey, err := s.sessions.Create(r.Context(), req.Library, req.PolyModulusDegree)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.metrics.Record("keys", time.Since(start))

	fingerprint := sha3.Sum256(publicKey)
	s.writeJSON(w, GenerateKeysResponse{
		SessionID: session.ID,
		Library:   session.Library,
		PublicKey: publicKey,
		SlotCount: session.Scheme.SlotCount(),
		Status:    "keys generated, public key fingerprint " + hex.EncodeToString(fingerprint[:])[:16],
	})
}

type EncryptRequest struct {
	SessionID string  `json:"session_id"`
	Values    []int64 `json:"values"`
}

type CiphertextResponse struct {
	SessionID  string `json:"session_id"`
	Ciphertext []byte `json:"ciphertext"`
	Status     string `json:"status"`
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.requireSession(w, req.SessionID) {
		return
	}

	start := time.Now()
	ciphertext, err := s.sessions.Encrypt(req.SessionID, req.Values)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.metrics.Record("encrypt", time.Since(start))

	s.writeJSON(w, CiphertextResponse{
		SessionID:  req.SessionID,
		Ciphertext: ciphertext,
		Status:     "encryption successful",
	})
}

type DecryptRequest struct {
	SessionID  string `json:"session_id"`
	Ciphertext []byte `json:"ciphertext"`
}

type DecryptResponse struct {
	SessionID string  `json:"session_id"`
	Values    []int64 `json:"values"`
	Status    string  `json:"status"`
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.requireSession(w, req.SessionID) {
		return
	}

	start := time.Now()
	values, err := s.sessions.Decrypt(req.SessionID, req.Ciphertext)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.metrics.Record("decrypt", time.Since(start))

	s.writeJSON(w, DecryptResponse{
		SessionID: req.SessionID,
		Values:    values,
		Status:    "decryption successful",
	})
}

type BinaryOpRequest struct {
	SessionID   string `json:"session_id"`
	Ciphertext1 []byte `json:"ciphertext1"`
	Ciphertext2 []byte `json:"ciphertext2"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	s.handleBinaryOp(w, r, "add", s.sessions.Add)
}

func (s *Server) handleMultiply(w http.ResponseWriter, r *http.Request) {
	s.handleBinaryOp(w, r, "multiply", s.sessions.Multiply)
}

func (s *Server) handleBinaryOp(w http.ResponseWriter, r *http.Request, name string, op func(string, []byte, []byte) ([]byte, error)) {
	var req BinaryOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.requireSession(w, req.SessionID) {
		return
	}

	start := time.Now()
	result, err := op(req.SessionID, req.Ciphertext1, req.Ciphertext2)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.metrics.Record(name, time.Since(start))

	s.writeJSON(w, CiphertextResponse{
		SessionID:  req.SessionID,
		Ciphertext: result,
		Status:     "homomorphic " + name + " successful",
	})
}

type BenchmarkRequest struct {
	Library       string `json:"library"`
	NumOperations int    `json:"num_operations"`
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !encryption.Supported(req.Library) {
		s.writeError(w, errors.New("unsupported library: "+req.Library), http.StatusBadRequest)
		return
	}

	result := service.RunBenchmark(r.Context(), req.Library, req.NumOperations)
	w.Header().Set("Content-Type", "application/json")
	if !result.Success {
		w.WriteHeader(http.StatusInternalServerError)
	}
	s.writeJSONBody(w, result)
}

func (s *Server) handleBenchmarkCompare(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if !s.decode(w, r, &req) {
		return
	}

	comparison := service.RunComparison(r.Context(), req.NumOperations)
	if err := s.history.AppendRun(comparison); err != nil {
		log.Printf("failed to persist benchmark run: %v", err)
	}
	s.writeJSON(w, comparison)
}

func (s *Server) handleBenchmarkHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.history.Runs())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"operations":     s.metrics.Snapshot(),
		"uptime_seconds": s.metrics.Uptime().Seconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"libraries": encryption.Libraries(),
		"sessions":  s.sessions.Count(),
	})
}

func (s *Server) requireSession(w http.ResponseWriter, sessionID string) bool {
	if sessionID == "" {
		s.writeError(w, errors.New("session_id is required"), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeError(w, errors.New("invalid request body: "+err.Error()), http.StatusBadRequest)
		return false
	}
	return true
}

// writeMappedError translates the typed error classes into HTTP status
// codes.
func (s *Server) writeMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		s.writeError(w, err, http.StatusNotFound)
	case errors.Is(err, encryption.ErrUnsupportedLibrary),
		errors.Is(err, encryption.ErrParameter),
		errors.Is(err, encryption.ErrEncoding),
		errors.Is(err, service.ErrCiphertextMismatch):
		s.writeError(w, err, http.StatusBadRequest)
	case errors.Is(err, encryption.ErrDepthExhausted):
		// a crypto-operation failure, not a request defect
		s.writeError(w, err, http.StatusInternalServerError)
	case errors.Is(err, encryption.ErrUnimplemented):
		s.writeError(w, err, http.StatusNotImplemented)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.writeError(w, err, http.StatusGatewayTimeout)
	default:
		s.writeError(w, err, http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, code int) {
	log.Printf("request failed (%d): %v", code, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	s.writeJSONBody(w, payload)
}

func (s *Server) writeJSONBody(w http.ResponseWriter, payload interface{}) {
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
