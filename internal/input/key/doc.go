// Package key defines key codes and modifier sets shared by the capture,
// shortcut, and playback components. Codes use Windows virtual-key values
// so the platform layer needs no translation table.
package key
