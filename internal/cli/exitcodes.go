package cli

// Exit codes for CLI commands, following Unix conventions.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError covers usage mistakes caught by cobra and anything that
	// fits none of the categories below.
	ExitError = 1

	// ExitNotFound indicates a record or link id does not exist.
	ExitNotFound = 3

	// ExitDataErr indicates the stored data could not be read or written,
	// or the store found an internal consistency fault.
	ExitDataErr = 4

	// ExitValidation indicates rejected input: a malformed field or an id
	// that is already taken.
	ExitValidation = 5
)
