// Package engines provides synthesis engines: the Google Cloud
// Text-to-Speech REST API and an offline mock that generates tones.
package engines
