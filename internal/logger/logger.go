package logger

import (
	"github.com/fatih/color" // Import the fatih/color package for colored console output
)

// Define colorized printing functions for different log levels using fatih/color.
// Info and Debug go to stdout; Warn and Error go to stderr so that fatal messages
// land on the error stream even when stdout is redirected to a file.

var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgHiMagenta)
	errorColor = color.New(color.FgRed)
	debugColor = color.New(color.FgCyan)
)

// Info logs informational messages in green color.
var Info = infoColor.PrintfFunc()

// Warn logs warning messages in bright magenta color.
// Used for tolerated failures: the run keeps going after a Warn.
var Warn = func(format string, a ...any) {
	_, _ = warnColor.Fprintf(color.Error, format, a...)
}

// Error logs error messages in red color.
var Error = func(format string, a ...any) {
	_, _ = errorColor.Fprintf(color.Error, format, a...)
}

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It starts out disabled so packages can log before Init runs (and in tests).
var Debug = func(format string, a ...any) {}

// Init initializes the logger package, specifically enabling or disabling debug logging.
// Parameters:
// - enableDebug: boolean flag to turn debug messages on or off.
func Init(enableDebug bool) {
	if enableDebug {
		// Assign Debug to print cyan-colored debug messages.
		Debug = debugColor.PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}
