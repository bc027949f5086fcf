package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"hebench-backend/encryption"
	"hebench-backend/models"
)

const defaultBenchmarkCycles = 50

// benchmarkVector is the fixed workload every backend is measured on.
// Single-value backends see only the first element.
var benchmarkVector = []int64{10, 20, 30, 40, 50}

// RunBenchmark measures one backend over numOperations cycles of each
// operation. Key generation happens once and is reported as a wall
// total; the per-operation fields are mean milliseconds per call. A
// backend failure is reported in the result, not returned as an error.
func RunBenchmark(ctx context.Context, library string, numOperations int) models.BenchmarkResult {
	if numOperations <= 0 {
		numOperations = defaultBenchmarkCycles
	}
	result := models.BenchmarkResult{Library: library}
	start := time.Now()

	scheme, err := encryption.NewScheme(library, 0)
	if err != nil {
		return failedResult(result, start, err)
	}

	keyGenStart := time.Now()
	if err := scheme.GenerateKeys(); err != nil {
		return failedResult(result, start, err)
	}
	result.KeyGenTimeMs = msSince(keyGenStart)

	if err := ctx.Err(); err != nil {
		return failedResult(result, start, err)
	}

	encodeSamples := make([]float64, 0, numOperations)
	for i := 0; i < numOperations; i++ {
		opStart := time.Now()
		if err := scheme.Encode(benchmarkVector); err != nil {
			return failedResult(result, start, err)
		}
		encodeSamples = append(encodeSamples, msSince(opStart))
	}
	result.EncodingTimeMs, _ = stats.Mean(encodeSamples)

	if err := ctx.Err(); err != nil {
		return failedResult(result, start, err)
	}

	ciphertexts := make([][]byte, 0, numOperations)
	encryptSamples := make([]float64, 0, numOperations)
	for i := 0; i < numOperations; i++ {
		opStart := time.Now()
		ct, err := scheme.Encrypt(benchmarkVector)
		if err != nil {
			return failedResult(result, start, err)
		}
		encryptSamples = append(encryptSamples, msSince(opStart))
		ciphertexts = append(ciphertexts, ct)
	}
	result.EncryptionTimeMs, _ = stats.Mean(encryptSamples)

	if err := ctx.Err(); err != nil {
		return failedResult(result, start, err)
	}

	addSamples := make([]float64, 0, numOperations)
	for i := 0; i < numOperations; i++ {
		opStart := time.Now()
		if _, err := scheme.Add(ciphertexts[i%len(ciphertexts)], ciphertexts[(i+1)%len(ciphertexts)]); err != nil {
			return failedResult(result, start, err)
		}
		addSamples = append(addSamples, msSince(opStart))
	}
	result.AdditionTimeMs, _ = stats.Mean(addSamples)

	if err := ctx.Err(); err != nil {
		return failedResult(result, start, err)
	}

	// Products are discarded so no cycle ever operates on an operand
	// with consumed depth.
	if scheme.SupportsMultiplication() {
		mulSamples := make([]float64, 0, numOperations)
		for i := 0; i < numOperations; i++ {
			opStart := time.Now()
			if _, err := scheme.Multiply(ciphertexts[i%len(ciphertexts)], ciphertexts[(i+1)%len(ciphertexts)]); err != nil {
				return failedResult(result, start, err)
			}
			mulSamples = append(mulSamples, msSince(opStart))
		}
		result.MultiplicationTimeMs, _ = stats.Mean(mulSamples)
	}

	if err := ctx.Err(); err != nil {
		return failedResult(result, start, err)
	}

	decryptSamples := make([]float64, 0, numOperations)
	for i := 0; i < numOperations; i++ {
		opStart := time.Now()
		if _, err := scheme.Decrypt(ciphertexts[i%len(ciphertexts)]); err != nil {
			return failedResult(result, start, err)
		}
		decryptSamples = append(decryptSamples, msSince(opStart))
	}
	result.DecryptionTimeMs, _ = stats.Mean(decryptSamples)

	result.TotalTimeMs = msSince(start)
	result.Success = true
	return result
}

// RunComparison benchmarks every known backend with the same cycle
// count. One backend failing does not abort the others; the fastest
// label considers successful runs only.
func RunComparison(ctx context.Context, numOperations int) models.ComparisonResult {
	libraries := encryption.Libraries()
	comparison := models.ComparisonResult{
		Results:   make([]models.BenchmarkResult, 0, len(libraries)),
		Timestamp: time.Now(),
	}

	for _, library := range libraries {
		comparison.Results = append(comparison.Results, RunBenchmark(ctx, library, numOperations))
	}

	fastest := ""
	best := 0.0
	for _, r := range comparison.Results {
		if !r.Success {
			continue
		}
		if fastest == "" || r.TotalTimeMs < best {
			fastest = r.Library
			best = r.TotalTimeMs
		}
	}
	comparison.FastestLibrary = fastest
	comparison.Recommendation = recommendation(fastest, comparison.Results)
	return comparison
}

// recommendation is a fixed policy over the capability matrix, not a
// free-form judgment: raw speed is weighed against batching and
// multiplication support.
func recommendation(fastest string, results []models.BenchmarkResult) string {
	if fastest == "" {
		failed := make([]string, 0, len(results))
		for _, r := range results {
			failed = append(failed, fmt.Sprintf("%s (%s)", r.Library, r.ErrorMessage))
		}
		return "no backend completed the benchmark: " + strings.Join(failed, "; ")
	}
	if fastest == encryption.LibraryPaillier {
		return "paillier is fastest for single additive values, but it packs one value per ciphertext and cannot multiply; use bfv or bgv for vector workloads or circuits with products"
	}
	return fmt.Sprintf("%s is fastest overall and supports batched vectors and homomorphic multiplication; prefer paillier only for purely additive single-value workloads", fastest)
}

func failedResult(result models.BenchmarkResult, start time.Time, err error) models.BenchmarkResult {
	result.Success = false
	result.ErrorMessage = err.Error()
	result.TotalTimeMs = msSince(start)
	return result
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
