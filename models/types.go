package models

import "time"

// BenchmarkResult stores the performance metrics measured for one
// homomorphic encryption backend. Per-operation fields are amortized
// milliseconds per call; key generation and total are wall-clock totals.
type BenchmarkResult struct {
	Library              string  `json:"library"`
	KeyGenTimeMs         float64 `json:"key_gen_time_ms"`
	EncodingTimeMs       float64 `json:"encoding_time_ms"`
	EncryptionTimeMs     float64 `json:"encryption_time_ms"`
	AdditionTimeMs       float64 `json:"addition_time_ms"`
	MultiplicationTimeMs float64 `json:"multiplication_time_ms"`
	DecryptionTimeMs     float64 `json:"decryption_time_ms"`
	TotalTimeMs          float64 `json:"total_time_ms"`
	Success              bool    `json:"success"`
	ErrorMessage         string  `json:"error_message,omitempty"`
}

// ComparisonResult aggregates one BenchmarkResult per backend plus the
// derived fastest backend and a workload recommendation.
type ComparisonResult struct {
	Results        []BenchmarkResult `json:"results"`
	FastestLibrary string            `json:"fastest_library"`
	Recommendation string            `json:"recommendation"`
	Timestamp      time.Time         `json:"timestamp"`
}
