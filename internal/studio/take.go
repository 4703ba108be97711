package studio

import (
	"time"

	"github.com/example/voicestudio/internal/audio"
)

// Take labels produced by the generation flows.
const (
	LabelOriginal  = "Original"
	LabelHighPitch = "High Pitch"
	LabelTrimmed   = "Trimmed"
)

// Take is one generated (or derived) rendition of the script.
type Take struct {
	ID        string
	ProfileID string
	Label     string
	CreatedAt time.Time
	Buffer    *audio.Buffer
}

// Duration is the take length in seconds.
func (t Take) Duration() float64 {
	if t.Buffer == nil {
		return 0
	}

	return t.Buffer.Duration()
}
