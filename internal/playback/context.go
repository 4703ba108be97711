package playback

import (
	"context"
	"errors"

	"github.com/example/voicestudio/internal/audio"
)

// ErrPlaybackUnavailable reports that no audio output could be obtained.
// Generation and export keep working without it.
var ErrPlaybackUnavailable = errors.New("playback unavailable")

// Context is the process-wide audio output. It is created once at startup
// and handed to every Engine that needs it.
type Context interface {
	// Now returns the output clock in seconds. It advances with audio that
	// has actually been played, not with wall time.
	Now() float64
	// Resume wakes a suspended output. Playback must not be scheduled
	// before it returns.
	Resume(ctx context.Context) error
	// Start plays buf beginning offset seconds in.
	Start(buf *audio.Buffer, offset float64) (Source, error)
}

// Source is one scheduled playback of a buffer.
type Source interface {
	// Stop silences the source. Calling it twice is harmless.
	Stop()
}
