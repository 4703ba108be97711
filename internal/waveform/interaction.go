package waveform

import (
	"math"

	"github.com/example/voicestudio/internal/audio"
)

// ClickThreshold is the timeline distance below which a press/release pair
// counts as a seek click rather than a selection drag.
const ClickThreshold = 0.05

// InteractionState is the pointer state of the waveform.
type InteractionState int

const (
	Idle InteractionState = iota
	Dragging
)

func (s InteractionState) String() string {
	if s == Dragging {
		return "dragging"
	}

	return "idle"
}

// Interaction turns pointer events on the waveform into seeks and
// selections. Coordinates are CSS pixels relative to the left edge; Width
// and Duration describe the current display and take.
type Interaction struct {
	Width    float64
	Duration float64

	// OnSeek receives the clicked position.
	OnSeek func(t float64)
	// OnSelect receives the live selection, or nil when it is cleared.
	OnSelect func(sel *audio.Selection)

	state    InteractionState
	anchor   float64
	hoverX   float64
	hovering bool
}

func (in *Interaction) State() InteractionState { return in.state }

// Hover reports the pointer x position while the pointer is over the display.
func (in *Interaction) Hover() (float64, bool) { return in.hoverX, in.hovering }

func (in *Interaction) timeAt(x float64) float64 {
	if in.Width <= 0 {
		return 0
	}

	return audio.ClampTime(x/in.Width*in.Duration, in.Duration)
}

// PointerDown starts a drag and clears any existing selection. It is ignored
// when there is no audio.
func (in *Interaction) PointerDown(x float64) {
	in.hoverX, in.hovering = x, true
	if in.Duration <= 0 {
		return
	}

	in.state = Dragging
	in.anchor = in.timeAt(x)
	in.notifySelect(nil)
}

// PointerMove tracks the hover guide and, while dragging, updates the
// selection to span the anchor and the pointer.
func (in *Interaction) PointerMove(x float64) {
	in.hoverX, in.hovering = x, true
	if in.state != Dragging {
		return
	}

	sel := audio.NewSelection(in.anchor, in.timeAt(x), in.Duration)
	in.notifySelect(&sel)
}

// PointerUp ends a drag. A short drag seeks to the release point and clears
// the selection; a longer one commits the selection without seeking.
func (in *Interaction) PointerUp(x float64) {
	if in.state != Dragging {
		in.state = Idle
		return
	}
	in.state = Idle

	end := in.timeAt(x)
	if math.Abs(end-in.anchor) < ClickThreshold {
		if in.OnSeek != nil {
			in.OnSeek(end)
		}
		in.notifySelect(nil)
		return
	}

	sel := audio.NewSelection(in.anchor, end, in.Duration)
	in.notifySelect(&sel)
}

// PointerLeave hides the hover guide and abandons an in-progress drag
// without seeking.
func (in *Interaction) PointerLeave() {
	in.hovering = false
	in.state = Idle
}

func (in *Interaction) notifySelect(sel *audio.Selection) {
	if in.OnSelect != nil {
		in.OnSelect(sel)
	}
}
