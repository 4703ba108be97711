package synth

import (
	"regexp"
	"strings"
)

// Prebuilt voices offered by the synthesis model.
const (
	VoiceKore   = "Kore"
	VoicePuck   = "Puck"
	VoiceCharon = "Charon"
	VoiceFenrir = "Fenrir"
)

var (
	maleDescription  = regexp.MustCompile(`\b(male|man|boy|guy|brother|father|king|wizard|pirate|lord|sir|actor|hero|soldier|monk|narrator|detective|general|chef|baritone|chest voice|attenborough|philosopher|gangster|cyborg|warlord|gentleman)\b`)
	maleName         = regexp.MustCompile(`\b(male|man|boy|guy|mr|david|arthur|chris|callum|daniel)\b`)
	deepDescription  = regexp.MustCompile(`\b(deep|gruff|powerful|low|rough|monster|demon|giant|viking|god|sage|ancient|warlord)\b`)
	roughDescription = regexp.MustCompile(`\b(orc|growl|distorted|cybernetic|robot|glitch)\b`)
)

// voiceTraits are the keyword classifications SelectVoice works from.
type voiceTraits struct {
	name  string
	male  bool
	deep  bool
	rough bool
}

func classify(p Profile) voiceTraits {
	desc := strings.ToLower(p.Description)
	name := strings.ToLower(p.Name)

	return voiceTraits{
		name:  name,
		male:  maleDescription.MatchString(desc) || maleName.MatchString(name),
		deep:  deepDescription.MatchString(desc),
		rough: roughDescription.MatchString(desc),
	}
}

// voiceRule maps a profile to a voice when match returns true.
type voiceRule struct {
	match func(p Profile, t voiceTraits) bool
	voice func(t voiceTraits) string
}

func fixed(v string) func(voiceTraits) string {
	return func(voiceTraits) string { return v }
}

func isHorror(p Profile) bool {
	return p.Category == CategoryBgHorror || p.Category == CategoryUltraHorror
}

func nameHasAny(name string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(name, w) {
			return true
		}
	}

	return false
}

var voiceRules = []voiceRule{
	{
		match: func(p Profile, _ voiceTraits) bool { return p.Category == CategoryQuranic },
		voice: fixed(VoiceCharon),
	},
	{
		match: func(p Profile, _ voiceTraits) bool { return isHorror(p) },
		voice: func(t voiceTraits) string {
			switch {
			case nameHasAny(t.name, "witch", "girl", "woman"):
				return VoiceKore
			case nameHasAny(t.name, "demon", "monster", "growl"):
				return VoiceFenrir
			default:
				return VoiceCharon
			}
		},
	},
	{
		match: func(_ Profile, t voiceTraits) bool { return t.rough },
		voice: fixed(VoiceFenrir),
	},
	{
		match: func(_ Profile, t voiceTraits) bool { return t.male },
		voice: func(t voiceTraits) string {
			if t.deep {
				return VoiceCharon
			}
			return VoicePuck
		},
	},
}

// SelectVoice picks the prebuilt voice for a profile. Rules are evaluated in
// order; the first match wins and Kore is the fallback.
func SelectVoice(p Profile) string {
	t := classify(p)
	for _, r := range voiceRules {
		if r.match(p, t) {
			return r.voice(t)
		}
	}

	return VoiceKore
}
