package synth

import (
	"strings"
	"testing"
)

func TestAtmosphere(t *testing.T) {
	tests := []struct {
		name   string
		reverb float64
		creepy float64
		want   string
	}{
		{"none", 0, 0, ""},
		{"at threshold", 0.1, 0.1, ""},
		{"slight echo", 0.2, 0, " with a slight, subtle echo, "},
		{"distinct reverb", 0.5, 0, " with a distinct, noticeable reverb, "},
		{"cavernous", 0.9, 0, " with a heavy, cavernous reverb and echo as if in a large, empty hall, "},
		{"eerie", 0, 0.3, " with a subtle, eerie undertone, "},
		{"creepy", 0, 0.6, " in an unsettling, creepy, and disturbing tone, "},
		{"both", 0.2, 0.9, " with a slight, subtle echo,  in a terrifying, nightmarish tone filled with dread, "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Atmosphere(VoiceSettings{Reverb: tt.reverb, Creepiness: tt.creepy})
			if got != tt.want {
				t.Errorf("Atmosphere = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    string
	}{
		{
			name:    "general fallback with accent",
			profile: Profile{Name: "Ava", Vibe: "Friendly", Settings: VoiceSettings{Accent: "Scottish"}},
			want:    "Voice Style Instruction: Speak in a friendly tone as Ava.  Use a Scottish accent.\n\nContent to read: \"Hello\"",
		},
		{
			name:    "neutral accent omitted",
			profile: Profile{Name: "Ava", Vibe: "Sincere", Settings: VoiceSettings{Accent: "Neutral EN"}},
			want:    "Voice Style Instruction: Speak in a sincere tone as Ava. \n\nContent to read: \"Hello\"",
		},
		{
			name:    "quranic named style",
			profile: Profile{Name: "Sheikh Mishary", Category: CategoryQuranic},
			want:    "Voice Style Instruction: " + quranPreamble + " Style: Mishary Alafasy - smooth, emotional, gentle baritone.\n\nContent to read: \"Hello\"",
		},
		{
			name:    "quranic fallback style",
			profile: Profile{Name: "Reciter", Category: CategoryQuranic},
			want:    "Voice Style Instruction: " + quranPreamble + " Style: Authentic Male Qari.\n\nContent to read: \"Hello\"",
		},
		{
			name:    "background horror with atmosphere",
			profile: Profile{Name: "Cult Chant", Category: CategoryBgHorror, Settings: VoiceSettings{Reverb: 0.5}},
			want:    "Voice Style Instruction: Generate a soundscape-like vocal performance  with a distinct, noticeable reverb, of a low, monotonic, rhythmic cult chant.\n\nContent to read: \"Hello\"",
		},
		{
			name:    "motivational epic",
			profile: Profile{Name: "Epic Trailer", Category: CategoryMotivational},
			want:    "Voice Style Instruction: Powerful, deep, resonant, cinematic male voice .\n\nContent to read: \"Hello\"",
		},
		{
			name:    "cybernetic vibe",
			profile: Profile{Name: "Unit 7", Vibe: "Cybernetic"},
			want:    "Voice Style Instruction: Speak in a precise, staccato, slightly metallic and emotionless cybernetic tone. \n\nContent to read: \"Hello\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildPrompt("Hello", tt.profile); got != tt.want {
				t.Errorf("BuildPrompt =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt_CategoryBeatsAccent(t *testing.T) {
	p := Profile{
		Name:     "Soft Girl",
		Category: CategoryWhisper,
		Settings: VoiceSettings{Accent: "Nature Documentary"},
	}

	got := BuildPrompt("hi", p)
	if !strings.Contains(got, "Close-mic ASMR whisper . Extremely soft, breathy, airy female whisper.") {
		t.Errorf("BuildPrompt = %q; want whisper instruction", got)
	}
	if strings.Contains(got, "Attenborough") {
		t.Error("accent rule applied despite category rule")
	}
}

func TestBuildPrompt_Cloning(t *testing.T) {
	p := Profile{
		Name:           "Me",
		Vibe:           "Dramatic",
		Category:       CategoryQuranic,
		AudioSampleURL: "data:audio/wav;base64,AAAA",
		Settings:       VoiceSettings{Creepiness: 0.3},
	}

	got := BuildPrompt("Read this", p)

	if !strings.HasPrefix(got, cloningLead+" The vibe 'Dramatic' should only influence emotion, not identity. ") {
		t.Errorf("cloning prompt prefix wrong: %q", got)
	}
	if !strings.Contains(got, "eerie undertone") {
		t.Error("cloning prompt lost the atmosphere")
	}
	if !strings.HasSuffix(got, "\n\nContent to read: \"Read this\"") {
		t.Errorf("cloning prompt suffix wrong: %q", got)
	}
	if strings.Contains(got, "Murattal") {
		t.Error("category rule applied to a cloned profile")
	}
}

func TestBuildPrompt_InstructionPrecedesScript(t *testing.T) {
	got := BuildPrompt("the script", Profile{Name: "X", Vibe: "Calm"})

	instr := strings.Index(got, "Voice Style Instruction:")
	content := strings.Index(got, "Content to read:")
	if instr != 0 || content <= instr {
		t.Errorf("instruction at %d, content at %d", instr, content)
	}
}
