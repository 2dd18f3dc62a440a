// Package input maps raw keyboard and pointer events onto session actions.
package input

import (
	"time"

	"playbackengine/internal/domain"
)

const volumeStep = 0.1

// KeyEvent is one keydown from a player surface.
type KeyEvent struct {
	Key string `json:"key"`
	// FromTextInput is set when a text-input-like element has focus;
	// shortcuts are suppressed then.
	FromTextInput bool `json:"fromTextInput"`
}

// MapKey translates a shortcut into the actions it performs. Returns nil when
// the key is unbound or shortcuts are suppressed.
func MapKey(ev KeyEvent, s domain.PlaybackSession, seekInterval float64) []domain.Action {
	if ev.FromTextInput || s.IsSettingsOpen {
		return nil
	}
	if seekInterval <= 0 {
		seekInterval = 10
	}
	now := time.Now()

	switch ev.Key {
	case " ", "k":
		if s.IsPlaying {
			return []domain.Action{domain.Pause{}, domain.ShowOSD{Kind: domain.OSDPause, At: now}}
		}
		return []domain.Action{domain.Play{}, domain.ShowOSD{Kind: domain.OSDPlay, At: now}}

	case "m":
		return []domain.Action{domain.MuteToggle{}, domain.ShowOSD{Kind: domain.OSDMute, At: now}}

	case "f":
		return []domain.Action{domain.FullscreenChange{Fullscreen: !s.IsFullscreen}}

	case "p":
		return []domain.Action{domain.PiPChange{PiP: !s.IsInPictureInPicture}}

	case "ArrowLeft":
		return []domain.Action{
			domain.Seek{Seconds: s.ProgressSeconds - seekInterval},
			domain.ShowOSD{Kind: domain.OSDSeekBack, Value: seekInterval, At: now},
		}

	case "ArrowRight":
		return []domain.Action{
			domain.Seek{Seconds: s.ProgressSeconds + seekInterval},
			domain.ShowOSD{Kind: domain.OSDSeekFwd, Value: seekInterval, At: now},
		}

	case "ArrowUp":
		v := domain.ClampVolume(s.Volume + volumeStep)
		return []domain.Action{
			domain.VolumeChange{Volume: v},
			domain.ShowOSD{Kind: domain.OSDVolume, Value: v, At: now},
		}

	case "ArrowDown":
		v := domain.ClampVolume(s.Volume - volumeStep)
		return []domain.Action{
			domain.VolumeChange{Volume: v},
			domain.ShowOSD{Kind: domain.OSDVolume, Value: v, At: now},
		}
	}

	// Numeric keys jump to deciles of the duration.
	if len(ev.Key) == 1 && ev.Key[0] >= '0' && ev.Key[0] <= '9' && s.DurationSeconds > 0 {
		decile := float64(ev.Key[0]-'0') / 10
		return []domain.Action{domain.Seek{Seconds: s.DurationSeconds * decile}}
	}
	return nil
}
