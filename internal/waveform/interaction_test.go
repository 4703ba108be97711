package waveform

import (
	"testing"

	"github.com/example/voicestudio/internal/audio"
)

type interactionLog struct {
	seeks      []float64
	selections []*audio.Selection
}

func newInteraction(width, duration float64) (*Interaction, *interactionLog) {
	log := &interactionLog{}
	in := &Interaction{
		Width:    width,
		Duration: duration,
		OnSeek:   func(t float64) { log.seeks = append(log.seeks, t) },
		OnSelect: func(sel *audio.Selection) { log.selections = append(log.selections, sel) },
	}

	return in, log
}

func (l *interactionLog) last() *audio.Selection {
	if len(l.selections) == 0 {
		return nil
	}

	return l.selections[len(l.selections)-1]
}

func TestInteraction_ClickSeeks(t *testing.T) {
	in, log := newInteraction(128, 8)

	in.PointerDown(80)
	if in.State() != Dragging {
		t.Fatalf("state after down = %v; want dragging", in.State())
	}
	if len(log.selections) != 1 || log.selections[0] != nil {
		t.Fatalf("pointer down should clear the selection first, got %v", log.selections)
	}

	in.PointerUp(80.5) // 0.03125 s away
	if in.State() != Idle {
		t.Errorf("state after up = %v; want idle", in.State())
	}
	if len(log.seeks) != 1 || log.seeks[0] != 5.03125 {
		t.Errorf("seeks = %v; want [5.03125]", log.seeks)
	}
	if log.last() != nil {
		t.Errorf("click left selection %+v", log.last())
	}
}

func TestInteraction_DragSelects(t *testing.T) {
	in, log := newInteraction(128, 8)

	in.PointerDown(80)
	in.PointerMove(112)
	if sel := log.last(); sel == nil || sel.Start != 5 || sel.End != 7 {
		t.Fatalf("selection while dragging right = %+v; want [5, 7]", sel)
	}

	in.PointerMove(32)
	if sel := log.last(); sel == nil || sel.Start != 2 || sel.End != 5 {
		t.Fatalf("selection while dragging left = %+v; want [2, 5]", sel)
	}

	in.PointerUp(32)
	if len(log.seeks) != 0 {
		t.Errorf("drag seeked to %v", log.seeks)
	}
	if sel := log.last(); sel == nil || sel.Start != 2 || sel.End != 5 {
		t.Errorf("committed selection = %+v; want [2, 5]", sel)
	}
}

func TestInteraction_DownUpWithoutMoveSelects(t *testing.T) {
	in, log := newInteraction(128, 8)

	in.PointerDown(16)
	in.PointerUp(64)
	if sel := log.last(); sel == nil || sel.Start != 1 || sel.End != 4 {
		t.Errorf("selection = %+v; want [1, 4]", sel)
	}
	if len(log.seeks) != 0 {
		t.Errorf("unexpected seek %v", log.seeks)
	}
}

func TestInteraction_SelectionClamped(t *testing.T) {
	in, log := newInteraction(128, 8)

	in.PointerDown(-30)
	in.PointerMove(400)
	in.PointerUp(400)

	sel := log.last()
	if sel == nil || sel.Start != 0 || sel.End != 8 {
		t.Fatalf("selection = %+v; want [0, 8]", sel)
	}

	for _, moves := range [][]float64{{90, 5, 300, -1}, {-50, 50, 49}, {128, 0}} {
		in.PointerDown(moves[0])
		for _, x := range moves[1:] {
			in.PointerMove(x)
			if s := log.last(); s != nil && (s.Start > s.End || s.Start < 0 || s.End > 8) {
				t.Fatalf("invalid selection %+v after moves %v", s, moves)
			}
		}
		in.PointerUp(moves[len(moves)-1])
	}
}

func TestInteraction_LeaveCancelsDrag(t *testing.T) {
	in, log := newInteraction(128, 8)

	in.PointerDown(50)
	in.PointerMove(51)
	in.PointerLeave()
	if in.State() != Idle {
		t.Errorf("state after leave = %v; want idle", in.State())
	}
	if _, hovering := in.Hover(); hovering {
		t.Error("hover guide still active after leave")
	}

	in.PointerUp(51)
	if len(log.seeks) != 0 {
		t.Errorf("leave then up seeked to %v", log.seeks)
	}
}

func TestInteraction_IgnoresPressWithoutAudio(t *testing.T) {
	in, log := newInteraction(128, 0)

	in.PointerDown(50)
	in.PointerUp(50)
	if in.State() != Idle || len(log.seeks) != 0 || len(log.selections) != 0 {
		t.Errorf("state=%v seeks=%v selections=%v; want no effect", in.State(), log.seeks, log.selections)
	}
	if x, ok := in.Hover(); !ok || x != 50 {
		t.Errorf("Hover = (%v, %v); want (50, true)", x, ok)
	}
}
