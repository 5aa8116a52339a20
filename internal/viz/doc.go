// Package viz replays a simulated jump in the terminal using Bubble Tea.
//
// The left pane draws the tower, rope and jumper on a braille [Canvas];
// the right pane shows time, height, velocity, the outcome and the
// diagnostics of the run.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the platform
//	+/-   - Double/halve playback speed
//	[ ]   - Step back/forward while paused
//	Q     - Quit
package viz
