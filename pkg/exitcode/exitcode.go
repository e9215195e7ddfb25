// Package exitcode provides standardized exit codes for vaultpub
package exitcode

// Exit codes for the vaultpub CLI
const (
	Success      = 0
	GeneralError = 1
	// ConfigError is returned when the run was rejected before any file was touched.
	ConfigError     = 2
	FileSystemError = 4
	// PartialFailure means the batch finished but some documents or assets failed.
	PartialFailure = 10
	CommitError    = 11
	// Aborted is returned when a confirmation prompt was declined.
	Aborted = 12
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case FileSystemError:
		return "File system error"
	case PartialFailure:
		return "Partial failure"
	case CommitError:
		return "Commit failed"
	case Aborted:
		return "Aborted by user"
	default:
		return "Unknown error"
	}
}
