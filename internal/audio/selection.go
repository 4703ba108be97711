package audio

// Selection is a time range on a buffer's timeline, in seconds.
type Selection struct {
	Start float64
	End   float64
}

// NewSelection orders the endpoints and clamps both into [0, duration].
func NewSelection(a, b, duration float64) Selection {
	a = ClampTime(a, duration)
	b = ClampTime(b, duration)
	if b < a {
		a, b = b, a
	}

	return Selection{Start: a, End: b}
}

// Empty reports whether the selection spans no time.
func (s Selection) Empty() bool { return s.Start == s.End }

// Length returns End - Start.
func (s Selection) Length() float64 { return s.End - s.Start }

// ClampTime limits t to [0, duration].
func ClampTime(t, duration float64) float64 {
	if t < 0 || duration <= 0 {
		return 0
	}
	if t > duration {
		return duration
	}

	return t
}
