// Package pcm turns the base64 audio payloads returned by the synthesis API
// into de-interleaved, normalized sample buffers and back again.
//
// Payloads are signed 16-bit little-endian PCM, interleaved by channel.
package pcm
