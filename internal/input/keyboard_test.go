package input

import (
	"testing"

	"playbackengine/internal/domain"
)

func TestMapKey_SuppressedFromTextInput(t *testing.T) {
	if got := MapKey(KeyEvent{Key: " ", FromTextInput: true}, domain.PlaybackSession{}, 10); got != nil {
		t.Fatalf("actions = %v, want nil", got)
	}
}

func TestMapKey_SuppressedWhileSettingsOpen(t *testing.T) {
	s := domain.PlaybackSession{IsSettingsOpen: true}
	if got := MapKey(KeyEvent{Key: "m"}, s, 10); got != nil {
		t.Fatalf("actions = %v, want nil", got)
	}
}

func TestMapKey_SpaceTogglesPlay(t *testing.T) {
	for _, key := range []string{" ", "k"} {
		got := MapKey(KeyEvent{Key: key}, domain.PlaybackSession{IsPlaying: false}, 10)
		if len(got) != 2 {
			t.Fatalf("key %q: actions = %d, want 2", key, len(got))
		}
		if _, ok := got[0].(domain.Play); !ok {
			t.Fatalf("key %q: first action = %T, want Play", key, got[0])
		}

		got = MapKey(KeyEvent{Key: key}, domain.PlaybackSession{IsPlaying: true}, 10)
		if _, ok := got[0].(domain.Pause); !ok {
			t.Fatalf("key %q: first action = %T, want Pause", key, got[0])
		}
	}
}

func TestMapKey_Mute(t *testing.T) {
	got := MapKey(KeyEvent{Key: "m"}, domain.PlaybackSession{}, 10)
	if _, ok := got[0].(domain.MuteToggle); !ok {
		t.Fatalf("action = %T, want MuteToggle", got[0])
	}
}

func TestMapKey_FullscreenAndPiPToggle(t *testing.T) {
	got := MapKey(KeyEvent{Key: "f"}, domain.PlaybackSession{IsFullscreen: true}, 10)
	fs, ok := got[0].(domain.FullscreenChange)
	if !ok || fs.Fullscreen {
		t.Fatalf("action = %#v, want FullscreenChange{false}", got[0])
	}

	got = MapKey(KeyEvent{Key: "p"}, domain.PlaybackSession{}, 10)
	pip, ok := got[0].(domain.PiPChange)
	if !ok || !pip.PiP {
		t.Fatalf("action = %#v, want PiPChange{true}", got[0])
	}
}

func TestMapKey_ArrowSeek(t *testing.T) {
	s := domain.PlaybackSession{ProgressSeconds: 100, DurationSeconds: 600}

	got := MapKey(KeyEvent{Key: "ArrowLeft"}, s, 15)
	seek, ok := got[0].(domain.Seek)
	if !ok || seek.Seconds != 85 {
		t.Fatalf("action = %#v, want Seek{85}", got[0])
	}

	got = MapKey(KeyEvent{Key: "ArrowRight"}, s, 15)
	seek, ok = got[0].(domain.Seek)
	if !ok || seek.Seconds != 115 {
		t.Fatalf("action = %#v, want Seek{115}", got[0])
	}
}

func TestMapKey_ArrowSeek_DefaultInterval(t *testing.T) {
	s := domain.PlaybackSession{ProgressSeconds: 100}
	got := MapKey(KeyEvent{Key: "ArrowRight"}, s, 0)
	seek := got[0].(domain.Seek)
	if seek.Seconds != 110 {
		t.Fatalf("seconds = %v, want default interval 10 applied", seek.Seconds)
	}
}

func TestMapKey_ArrowVolume_Clamped(t *testing.T) {
	got := MapKey(KeyEvent{Key: "ArrowUp"}, domain.PlaybackSession{Volume: 0.95}, 10)
	vc := got[0].(domain.VolumeChange)
	if vc.Volume != 1 {
		t.Fatalf("volume = %v, want clamped 1", vc.Volume)
	}

	got = MapKey(KeyEvent{Key: "ArrowDown"}, domain.PlaybackSession{Volume: 0.05}, 10)
	vc = got[0].(domain.VolumeChange)
	if vc.Volume != 0 {
		t.Fatalf("volume = %v, want clamped 0", vc.Volume)
	}
}

func TestMapKey_DigitJumpsToDecile(t *testing.T) {
	s := domain.PlaybackSession{DurationSeconds: 200}

	got := MapKey(KeyEvent{Key: "5"}, s, 10)
	seek, ok := got[0].(domain.Seek)
	if !ok || seek.Seconds != 100 {
		t.Fatalf("action = %#v, want Seek{100}", got[0])
	}

	got = MapKey(KeyEvent{Key: "0"}, s, 10)
	seek = got[0].(domain.Seek)
	if seek.Seconds != 0 {
		t.Fatalf("seconds = %v, want 0", seek.Seconds)
	}
}

func TestMapKey_DigitIgnoredWithoutDuration(t *testing.T) {
	if got := MapKey(KeyEvent{Key: "5"}, domain.PlaybackSession{}, 10); got != nil {
		t.Fatalf("actions = %v, want nil", got)
	}
}

func TestMapKey_UnboundKey(t *testing.T) {
	if got := MapKey(KeyEvent{Key: "q"}, domain.PlaybackSession{}, 10); got != nil {
		t.Fatalf("actions = %v, want nil", got)
	}
}
