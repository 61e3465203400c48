// Package device runs the camera daemon. Button presses trigger captures and
// uploads, a press counter arms the shutdown sequence, and LEDs report state.
package device
