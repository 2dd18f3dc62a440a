package input

import (
	"math"
	"time"

	"playbackengine/internal/domain"
)

const (
	// DoubleTapWindow separates a double-tap from two slow taps; single
	// taps are debounced by this much before toggling controls.
	DoubleTapWindow = 300 * time.Millisecond

	// dragThreshold is how far a touch must travel before the sequence
	// commits to a drag mode.
	dragThreshold = 10.0
)

type dragMode int

const (
	dragNone dragMode = iota
	dragVolume
	dragBrightness
)

// Recognizer turns one touch sequence at a time into actions. A sequence
// commits to at most one mode (volume XOR brightness), decided by the
// dominant axis and horizontal start position of the first movement past the
// threshold.
type Recognizer struct {
	width  float64
	height float64

	active    bool
	startX    float64
	startY    float64
	mode      dragMode
	baseValue float64

	lastTapAt time.Time
	tapX      float64
}

func NewRecognizer(width, height float64) *Recognizer {
	return &Recognizer{width: width, height: height}
}

// Resize updates the surface dimensions used for zone and proportion math.
func (r *Recognizer) Resize(width, height float64) {
	r.width = width
	r.height = height
}

// Begin starts a touch sequence. The state snapshot supplies the base values
// drags are measured from.
func (r *Recognizer) Begin(x, y float64, s domain.PlaybackSession) {
	r.active = true
	r.startX = x
	r.startY = y
	r.mode = dragNone
	if x >= r.width/2 {
		r.baseValue = s.EffectiveVolume()
	} else {
		r.baseValue = s.Brightness
	}
}

// Move processes a touch move, committing the drag mode on the first
// significant movement and emitting proportional adjustments afterwards.
func (r *Recognizer) Move(x, y float64, now time.Time) []domain.Action {
	if !r.active || r.height <= 0 {
		return nil
	}
	dx := x - r.startX
	dy := y - r.startY

	if r.mode == dragNone {
		if math.Abs(dx) < dragThreshold && math.Abs(dy) < dragThreshold {
			return nil
		}
		// Vertical drags adjust volume on the right half, brightness on
		// the left. Horizontal movement commits to nothing.
		if math.Abs(dy) <= math.Abs(dx) {
			r.active = false
			return nil
		}
		if r.startX >= r.width/2 {
			r.mode = dragVolume
		} else {
			r.mode = dragBrightness
		}
	}

	// Dragging up increases, proportionally to the surface height.
	delta := -dy / r.height

	switch r.mode {
	case dragVolume:
		v := domain.ClampVolume(r.baseValue + delta)
		return []domain.Action{
			domain.VolumeChange{Volume: v},
			domain.ShowOSD{Kind: domain.OSDVolume, Value: v, At: now},
		}
	case dragBrightness:
		b := domain.ClampBrightness(r.baseValue + delta)
		return []domain.Action{
			domain.BrightnessChange{Brightness: b},
			domain.ShowOSD{Kind: domain.OSDBrightness, Value: b, At: now},
		}
	}
	return nil
}

// End finishes the sequence. For taps it distinguishes double-taps (zone
// actions, applied immediately) from single taps; a single tap only reports
// tapPending=true and the caller toggles controls after DoubleTapWindow
// passes without a second tap.
func (r *Recognizer) End(x float64, now time.Time, s domain.PlaybackSession, seekInterval float64) (actions []domain.Action, tapPending bool) {
	wasDrag := r.mode != dragNone
	wasActive := r.active
	r.active = false
	r.mode = dragNone

	if wasDrag || !wasActive {
		return nil, false
	}
	if seekInterval <= 0 {
		seekInterval = 10
	}

	if !r.lastTapAt.IsZero() && now.Sub(r.lastTapAt) <= DoubleTapWindow {
		r.lastTapAt = time.Time{}
		return r.doubleTap(x, now, s, seekInterval), false
	}
	r.lastTapAt = now
	r.tapX = x
	return nil, true
}

// TapExpired reports whether a pending single tap is now older than the
// double-tap window and should toggle controls.
func (r *Recognizer) TapExpired(now time.Time) bool {
	return !r.lastTapAt.IsZero() && now.Sub(r.lastTapAt) > DoubleTapWindow
}

// ClearTap drops the pending tap once it has been acted on.
func (r *Recognizer) ClearTap() {
	r.lastTapAt = time.Time{}
}

// doubleTap maps the tap zone: left third seeks back, right third seeks
// forward, the middle toggles play.
func (r *Recognizer) doubleTap(x float64, now time.Time, s domain.PlaybackSession, seekInterval float64) []domain.Action {
	switch {
	case x < r.width/3:
		return []domain.Action{
			domain.Seek{Seconds: s.ProgressSeconds - seekInterval},
			domain.ShowOSD{Kind: domain.OSDSeekBack, Value: seekInterval, At: now},
		}
	case x > 2*r.width/3:
		return []domain.Action{
			domain.Seek{Seconds: s.ProgressSeconds + seekInterval},
			domain.ShowOSD{Kind: domain.OSDSeekFwd, Value: seekInterval, At: now},
		}
	default:
		if s.IsPlaying {
			return []domain.Action{domain.Pause{}, domain.ShowOSD{Kind: domain.OSDPause, At: now}}
		}
		return []domain.Action{domain.Play{}, domain.ShowOSD{Kind: domain.OSDPlay, At: now}}
	}
}
