package tts

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Gender of a catalogue voice.
type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// Voice is one entry of the fixed voice catalogue.
type Voice struct {
	Name   string
	Gender Gender
}

// LanguageCode returns the BCP-47 code embedded in the voice name, e.g.
// "en-US" for "en-US-Neural2-C".
func (v Voice) LanguageCode() string {
	parts := strings.SplitN(v.Name, "-", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// Family returns the model family, e.g. "Neural2" or "Wavenet".
func (v Voice) Family() string {
	parts := strings.Split(v.Name, "-")
	if len(parts) < 4 {
		return ""
	}
	return parts[2]
}

// DefaultVoice is used when a request names no voice.
const DefaultVoice = "en-US-Neural2-C"

var catalogue = []Voice{
	{Name: "en-US-Neural2-A", Gender: Male},
	{Name: "en-US-Neural2-C", Gender: Female},
	{Name: "en-US-Neural2-D", Gender: Male},
	{Name: "en-US-Neural2-E", Gender: Female},
	{Name: "en-US-Neural2-F", Gender: Female},
	{Name: "en-US-Neural2-G", Gender: Female},
	{Name: "en-US-Neural2-H", Gender: Female},
	{Name: "en-US-Neural2-I", Gender: Male},
	{Name: "en-US-Neural2-J", Gender: Male},
	{Name: "en-US-Wavenet-A", Gender: Male},
	{Name: "en-US-Wavenet-C", Gender: Female},
	{Name: "en-GB-Neural2-A", Gender: Female},
	{Name: "en-GB-Neural2-B", Gender: Male},
	{Name: "en-GB-Neural2-C", Gender: Female},
	{Name: "en-GB-Neural2-D", Gender: Male},
	{Name: "en-AU-Neural2-A", Gender: Female},
	{Name: "en-AU-Neural2-B", Gender: Male},
}

// Voices returns the catalogue sorted by name.
func Voices() []Voice {
	out := make([]Voice, len(catalogue))
	copy(out, catalogue)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupVoice finds a voice by exact name, ignoring case. An empty name
// selects DefaultVoice. Unknown names return an *UnknownVoiceError carrying
// up to three suggestions.
func LookupVoice(name string) (Voice, error) {
	if name == "" {
		name = DefaultVoice
	}
	for _, v := range catalogue {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return Voice{}, &UnknownVoiceError{Name: name, Suggestions: SuggestVoices(name, 3)}
}

// SuggestVoices returns up to limit catalogue names that fuzzy-match query,
// best match first.
func SuggestVoices(query string, limit int) []string {
	names := make([]string, len(catalogue))
	for i, v := range catalogue {
		names[i] = v.Name
	}

	matches := fuzzy.Find(query, names)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}

// NextVoice returns the catalogue voice after name, wrapping around. It is
// used to cycle voices from the keyboard.
func NextVoice(name string, step int) Voice {
	voices := Voices()
	idx := 0
	for i, v := range voices {
		if strings.EqualFold(v.Name, name) {
			idx = i
			break
		}
	}
	n := len(voices)
	return voices[((idx+step)%n+n)%n]
}
