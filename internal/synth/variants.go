package synth

import "math"

// Variation derives a labelled settings variant from a base profile.
type Variation struct {
	Label string
	Apply func(VoiceSettings) VoiceSettings
}

// StandardVariations returns the three takes produced by a variations run.
func StandardVariations() []Variation {
	return []Variation{
		{Label: "Original", Apply: func(s VoiceSettings) VoiceSettings { return s }},
		{Label: "Expressive", Apply: func(s VoiceSettings) VoiceSettings {
			s.EmotionalDepth = math.Min(1, s.EmotionalDepth+0.3)
			s.Speed = math.Max(0.5, s.Speed*0.9)
			return s
		}},
		{Label: "Energetic", Apply: func(s VoiceSettings) VoiceSettings {
			s.Speed = math.Min(2, s.Speed*1.15)
			s.Pitch = math.Min(1.5, s.Pitch*1.1)
			return s
		}},
	}
}

// HighPitch raises pitch by ten percent.
var HighPitch = Variation{
	Label: "High Pitch",
	Apply: func(s VoiceSettings) VoiceSettings {
		s.Pitch *= 1.1
		return s
	},
}

// WithSettings returns a copy of p with v applied to its settings.
func (v Variation) WithSettings(p Profile) Profile {
	p.Settings = v.Apply(p.Settings)
	return p
}
