package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Clean exit
	ExitGateFailed    = 1 // A report gate rejected the report
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitStoreError    = 3 // Report store failure
	ExitInternalError = 4 // Unexpected internal error
)
