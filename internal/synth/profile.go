package synth

// VoiceSettings are the tunable parameters of a voice profile. Reverb and
// Creepiness are never applied locally; they only shape the prompt.
type VoiceSettings struct {
	Language       string  `json:"language"`
	Speed          float64 `json:"speed"`
	Pitch          float64 `json:"pitch"`
	Temperature    float64 `json:"temperature"`
	EmotionalDepth float64 `json:"emotionalDepth"`
	Clarity        float64 `json:"clarity"`
	BreathingLevel float64 `json:"breathingLevel"`
	Stability      float64 `json:"stability"`
	Accent         string  `json:"accent"`
	Reverb         float64 `json:"reverb,omitempty"`
	Creepiness     float64 `json:"creepiness,omitempty"`
}

// Profile is a named voice configuration that synthesis requests are built from.
type Profile struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Vibe           string        `json:"vibe"`
	Category       string        `json:"category,omitempty"`
	AudioSampleURL string        `json:"audioSampleUrl,omitempty"`
	Settings       VoiceSettings `json:"settings"`
}

// Cloned reports whether the profile carries a reference sample to imitate.
func (p Profile) Cloned() bool {
	return p.AudioSampleURL != ""
}

// DefaultSettings mirrors the neutral starting point of a new profile.
func DefaultSettings() VoiceSettings {
	return VoiceSettings{
		Language:       "EN",
		Speed:          1.0,
		Pitch:          1.0,
		Temperature:    0.7,
		EmotionalDepth: 0.5,
		Clarity:        0.8,
		BreathingLevel: 0.2,
		Stability:      0.7,
		Accent:         "Neutral EN",
	}
}
