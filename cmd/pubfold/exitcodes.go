package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error, or no author IDs or records to process
	ExitDataError   = 3 // Data error (unreadable or malformed input)
)
