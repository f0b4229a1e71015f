// Package errors provides structured error handling for Aurora.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (index files, backup snapshot)
//   - 3XX: Network errors (upstream source, embedding host, synthesis provider)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeBackupNotFound = "ERR_201_BACKUP_NOT_FOUND"
	ErrCodeBackupCorrupt  = "ERR_202_BACKUP_CORRUPT"
	ErrCodeCorruptIndex   = "ERR_203_CORRUPT_INDEX"
	ErrCodeIndexLocked    = "ERR_204_INDEX_LOCKED"

	// Network errors (300-399)
	ErrCodeUpstreamUnavailable = "ERR_301_UPSTREAM_UNAVAILABLE"
	ErrCodeEmbeddingFailed     = "ERR_302_EMBEDDING_FAILED"
	ErrCodeSynthesisFailed     = "ERR_303_SYNTHESIS_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeIndexNotReady = "ERR_502_INDEX_NOT_READY"
)

// categoryFromCode derives the category from an error code prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from an error code.
// Network failures and lock contention degrade service but are not fatal.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigNotFound, ErrCodeBackupNotFound, ErrCodeIndexNotReady:
		return SeverityWarning
	case ErrCodeConfigInvalid, ErrCodeCorruptIndex:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// retryableCodes lists codes where a retry may succeed.
var retryableCodes = map[string]bool{
	ErrCodeUpstreamUnavailable: true,
	ErrCodeEmbeddingFailed:     true,
	ErrCodeSynthesisFailed:     true,
	ErrCodeIndexLocked:         true,
}

// isRetryableCode reports whether operations failing with this code may be retried.
func isRetryableCode(code string) bool {
	return retryableCodes[code]
}
