package domain

// Prompter surfaces device-authorization instructions to whoever drives a
// connect flow: a terminal banner for the CLI, a log line for the headless
// bridge. Implementations must not block waiting for user input; polling is
// the caller's job.
type Prompter interface {
	PromptDeviceAuthorization(session DeviceFlowSession)
}
