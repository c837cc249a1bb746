// Package platform holds the OS-specific glue: the low-level keyboard
// hook, input synthesis, global hotkey registration, async key state,
// and the named exclusive lock used for leader election. Windows is the
// supported target; other platforms get explicit unsupported stubs so
// the coordination fabric stays testable everywhere.
package platform
