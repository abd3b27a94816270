package version

import "runtime"

// Populated via -ldflags at build time.
var (
	BuildDate string
	GoVersion = runtime.Version()
)

const (
	AppName        = "EntryChime"
	AppDescription = "A Discord bot that greets members joining voice channels with their own entrance sound."
)
