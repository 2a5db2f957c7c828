// Package logging provides structured logging for the lampsmart tools.
//
// This package wraps a global zap logger with convenience functions. The
// CLI stays silent unless a level is requested, so encoded packets and
// command output are never interleaved with log lines by default.
//
// # Log Levels
//
//   - Debug: Packet hex dumps, HCI command traces
//   - Info: Transmissions, bridge requests, subscriber events
//   - Warn: Radio failures (advertising rejected by the controller)
//   - Error: Startup failures
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is passed, LAMPSMART_LOG_LEVEL is consulted. Logs go to
// stderr in console format.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and
// SetLogger are meant to be called once at startup.
package logging
