// Package tts turns a speak request into sound: it builds the SSML document,
// fetches the audio payload from a synthesis engine, decodes it and hands
// the buffer to the audio player. Only one request may be loading at a time.
package tts
