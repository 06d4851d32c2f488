// Package audio owns the output device and the single active playback
// session. It provides cross-platform playback through oto/v3 and a mock
// device for tests and machines without sound hardware.
package audio
