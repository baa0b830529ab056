package config

import "time"

// Default runtime limits and guardrails for the CTR dashboard service.
// These values are conservative and can be overridden by the YAML
// configuration file loaded at startup. They are referenced by
// internal/runtime and internal/server.

const (
	// Concurrency
	DefaultMaxConcurrentRequests   = 10
	DefaultMaxConcurrentIngestions = 4

	// Upload bounds
	DefaultMaxUploadBytes = 20 * 1024 * 1024 // 20MB workbook cap
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)

const (
	// HTTP
	DefaultListenAddr = ":8080"
)

const (
	// Sample dataset range, monthly cadence inclusive.
	DefaultSampleStart = "2024-04"
	DefaultSampleEnd   = "2025-08"
)

// DenominatorEpsilon bounds what counts as a usable denominator in change
// and ratio computations; anything below it is treated as degenerate.
const DenominatorEpsilon = 1e-9
