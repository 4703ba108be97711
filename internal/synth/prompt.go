package synth

import (
	"fmt"
	"strings"
)

// Profile categories with dedicated prompt and voice rules.
const (
	CategoryQuranic      = "Quranic Recitation"
	CategorySleep        = "Sleep Learning & Long Form"
	CategoryBgHorror     = "Background Horror"
	CategoryUltraHorror  = "Ultra-Horror"
	CategoryWhisper      = "Soft Intimate Whisper"
	CategoryMotivational = "Motivational & Deep"
)

const (
	accentNeutral       = "Neutral EN"
	accentTransatlantic = "Transatlantic (1920s)"
	accentNature        = "Nature Documentary"
	accentRobotic       = "Robotic Filter"
	vibeCybernetic      = "Cybernetic"
)

// nameRule picks a style line when the lower-cased profile name contains any
// of its keywords. An empty keyword list always matches.
type nameRule struct {
	keywords []string
	style    string
}

func (r nameRule) matches(name string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, k := range r.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}

	return false
}

func firstStyle(rules []nameRule, name string) string {
	for _, r := range rules {
		if r.matches(name) {
			return r.style
		}
	}

	return ""
}

const (
	quranPreamble = "Perform a respectful, authentic male Islamic vocal performance (Murattal style). Use a warm, breath-controlled voice with precise articulation. No music. Light room ambience."
	sleepPreamble = "Perform in a slow, steady, and incredibly stable voice suitable for long-form listening and subconscious learning. Maintain perfectly consistent volume and pacing."
	cloningLead   = "CRITICAL: Strict voice cloning required. Replicate the user's reference audio identity exactly. Match tone, timbre, accent, pacing, pitch, warmth, and breathiness."
)

var quranRules = []nameRule{
	{[]string{"mishary"}, "Style: Mishary Alafasy - smooth, emotional, gentle baritone."},
	{[]string{"sudais"}, "Style: Sudais - deep chest voice, powerful, fast-paced Hadr."},
	{[]string{"hussary"}, "Style: Hussary - very slow, precise, academic Tajwīd."},
	{[]string{"minshawi"}, "Style: Minshawi - sad (Nahawand), emotional, gentle vibrato."},
	{[]string{"abdul basit"}, "Style: Abdul Basit - powerful, resonant, long breath, Egyptian Mujawwad."},
	{nil, "Style: Authentic Male Qari."},
}

var sleepRules = []nameRule{
	{[]string{"night drive"}, "Style: 'Night Drive' Radio Host. Deep, soft-spoken male voice. Very calm, reassuring, and intimate. Clear articulation for English learning, but relaxed."},
	{[]string{"subconscious"}, "Style: Hypnotic Learning. Gentle, rhythmic female voice. Clear pauses between phrases to allow for mental processing. Soft, non-intrusive."},
	{[]string{"hypnosis"}, "Style: Deep Hypnosis. Extremely slow, resonant, monophonic male voice. Bore into the subconscious."},
	{nil, "Style: Gentle Bedtime Reader. Soft and soothing."},
}

var bgHorrorRules = []nameRule{
	{[]string{"poltergeist"}, "of a noisy poltergeist: vocal fry, sudden shifts, echoing."},
	{[]string{"cult"}, "of a low, monotonic, rhythmic cult chant."},
	{[]string{"demon"}, "of a basement demon: low pitch, guttural, growling."},
	{nil, "that is ambient and scary."},
}

var ultraHorrorRules = []nameRule{
	{[]string{"demonic"}, "Deep, layered, distorted demon voice with low harmonics and growls."},
	{[]string{"witch"}, "High-pitched, cackling, sinister witch voice."},
	{[]string{"ghost"}, "Ethereal, airy, cold ghost voice with echo."},
	{nil, "Creepy, slow, suspenseful narrator."},
}

var whisperRules = []nameRule{
	{[]string{"soft girl"}, "Extremely soft, breathy, airy female whisper."},
	{[]string{"deep"}, "Deep, resonant, smooth whisper."},
	{nil, "Warm, gentle, comforting whisper."},
}

// Atmosphere renders the reverb and creepiness levels as prompt fragments.
// Levels at or below 0.1 contribute nothing.
func Atmosphere(s VoiceSettings) string {
	var b strings.Builder

	switch {
	case s.Reverb > 0.8:
		b.WriteString(" with a heavy, cavernous reverb and echo as if in a large, empty hall, ")
	case s.Reverb > 0.4:
		b.WriteString(" with a distinct, noticeable reverb, ")
	case s.Reverb > 0.1:
		b.WriteString(" with a slight, subtle echo, ")
	}

	switch {
	case s.Creepiness > 0.8:
		b.WriteString(" in a terrifying, nightmarish tone filled with dread, ")
	case s.Creepiness > 0.5:
		b.WriteString(" in an unsettling, creepy, and disturbing tone, ")
	case s.Creepiness > 0.1:
		b.WriteString(" with a subtle, eerie undertone, ")
	}

	return b.String()
}

// BuildPrompt returns the instruction-annotated text sent for synthesis.
// The style instruction always precedes the script so the model treats it as
// context rather than content.
func BuildPrompt(script string, p Profile) string {
	atmo := Atmosphere(p.Settings)

	if p.Cloned() {
		styling := fmt.Sprintf("The vibe '%s' should only influence emotion, not identity. %s", p.Vibe, atmo)
		return fmt.Sprintf("%s %s\n\nContent to read: \"%s\"", cloningLead, styling, script)
	}

	return fmt.Sprintf("Voice Style Instruction: %s\n\nContent to read: \"%s\"", instruction(p, atmo), script)
}

func instruction(p Profile, atmo string) string {
	name := strings.ToLower(p.Name)

	switch p.Category {
	case CategoryQuranic:
		return quranPreamble + " " + firstStyle(quranRules, name)
	case CategorySleep:
		return sleepPreamble + " " + firstStyle(sleepRules, name)
	case CategoryBgHorror:
		return "Generate a soundscape-like vocal performance " + atmo + firstStyle(bgHorrorRules, name)
	case CategoryUltraHorror:
		return "Sound-designed horror voice " + atmo + ". " + firstStyle(ultraHorrorRules, name)
	case CategoryWhisper:
		return "Close-mic ASMR whisper " + atmo + ". " + firstStyle(whisperRules, name)
	case CategoryMotivational:
		if strings.Contains(name, "deep") || strings.Contains(name, "epic") {
			return "Powerful, deep, resonant, cinematic male voice " + atmo + "."
		}
		return "Calm, reassuring, professional motivational voice " + atmo + "."
	}

	switch {
	case p.Settings.Accent == accentTransatlantic:
		return "Speak with a fast, clipped, sharp 1920s Transatlantic radio announcer accent. " + atmo
	case p.Settings.Accent == accentNature:
		return "Speak in a breathy, hushed, reverent, and highly articulate British accent, exactly like David Attenborough observing nature. " + atmo
	case p.Vibe == vibeCybernetic || p.Settings.Accent == accentRobotic:
		return "Speak in a precise, staccato, slightly metallic and emotionless cybernetic tone. " + atmo
	}

	out := fmt.Sprintf("Speak in a %s tone as %s. %s", strings.ToLower(p.Vibe), p.Name, atmo)
	if p.Settings.Accent != "" && p.Settings.Accent != accentNeutral {
		out += fmt.Sprintf(" Use a %s accent.", p.Settings.Accent)
	}

	return out
}
