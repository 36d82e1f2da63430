// Package viz draws a running simulation in the terminal.
//
// [Canvas] is a braille grid with one color per cell. [Model] is a Bubble
// Tea model that ticks the simulation at 60 frames per second and renders
// targets, points and a stats panel with the alpha curve.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reheat
//	S     - Shuffle points across targets, one every 20ms
//	A     - Toggle the active flag of a random group
//	C     - Cancel the pending shuffle
//	V     - Show group anchors
//	O     - Show collision obstacles
//	T     - Cycle themes
//	Q     - Quit
package viz
