// Package viz draws particle simulations in the terminal and as SVG.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 sub-pixels per cell
//   - [DrawParticles]: plots particle positions fitted to [Bounds]
//   - [Model]: bubbletea program stepping a simulation live
//   - [ParticlesToSVG], [SeriesToSVG]: static exports
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Single step while paused
//	+/-   - Double/halve steps per frame
//	W     - Toggle wall particles
//	S     - Save an SVG snapshot
//	G     - Toggle GIF recording
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
