// Package output provides JSON/styled output formatting and error handling.
package output

// Exit codes. A fatal failure terminates the run with one of these and a
// human-readable message; no partial output is produced.
const (
	ExitOK        = 0 // Success
	ExitUsage     = 1 // Invalid arguments or flags
	ExitConfig    = 2 // Missing or malformed configuration
	ExitAuth      = 3 // Not authenticated / authorization failed
	ExitStore     = 4 // Credential store failure (corrupt record, IO error)
	ExitRateLimit = 5 // Rate limited (429)
	ExitNetwork   = 6 // Connection/DNS/timeout error
	ExitAPI       = 7 // Server returned an error
)

// Error codes for the JSON envelope.
const (
	CodeUsage     = "usage"
	CodeConfig    = "config"
	CodeAuth      = "auth_required"
	CodeStore     = "credential_store"
	CodeRateLimit = "rate_limit"
	CodeNetwork   = "network"
	CodeAPI       = "api_error"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeConfig:
		return ExitConfig
	case CodeAuth:
		return ExitAuth
	case CodeStore:
		return ExitStore
	case CodeRateLimit:
		return ExitRateLimit
	case CodeNetwork:
		return ExitNetwork
	case CodeAPI:
		return ExitAPI
	default:
		return ExitAPI
	}
}
