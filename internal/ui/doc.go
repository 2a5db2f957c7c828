// Package ui renders the lampsmart CLI's terminal output.
//
// Commands print once and exit: a header for long-running commands such as
// serve, a result box when a command finishes, and tables for device
// listings and decoded packets. The interactive remote lives in
// internal/remote and reuses the palette defined here.
//
// # Components
//
//   - Header: command banner with ordered parameters
//   - Result: success, failure and warning boxes
//   - Printer: writes components and tables to an io.Writer
//   - Confirm: typed-phrase confirmation for commands that make a fixture
//     forget its controller
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintSuccess("Paired", []ui.Detail{
//	    {Key: "Device", Value: "kitchen"},
//	    {Key: "Host ID", Value: "8c:df"},
//	})
//
// # Logging Integration
//
// zap logging is silent unless --log-level or LAMPSMART_LOG_LEVEL is set,
// so this package's output is the only thing a user sees by default.
//
// # Plain Output
//
// When stdout is not a terminal (pipes, CI), lipgloss drops colors and
// Printer falls back to MinTerminalWidth.
package ui
