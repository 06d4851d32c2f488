// Package ssml builds the SSML documents sent to the synthesis engine and
// turns markdown into speakable plain text.
package ssml
