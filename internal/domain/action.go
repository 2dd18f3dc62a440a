package domain

import "time"

// Action is the closed set of inputs to the session reducer. Every state
// change goes through one of these variants; the reducer switch over them is
// exhaustive.
type Action interface {
	isAction()
}

// Reset rebuilds session state for a (possibly new) content item, carrying
// over preference-derived fields.
type Reset struct {
	ContentID ContentID
	Prefs     Preferences
	Subtitles []SubtitleTrack
	Dubbed    []DubbedAudioTrack
}

// Ready fires when the media surface has metadata; duration becomes known.
type Ready struct {
	DurationSeconds float64
	StartAt         float64
}

type Play struct{}
type Pause struct{}

type TimeUpdate struct{ Seconds float64 }
type Seek struct{ Seconds float64 }

type VolumeChange struct{ Volume float64 }
type MuteToggle struct{}
type RateChange struct{ Rate float64 }
type BrightnessChange struct{ Brightness float64 }

type FullscreenChange struct{ Fullscreen bool }
type PiPChange struct{ PiP bool }

type SubtitleChange struct{ TrackID string }
type AudioTrackChange struct{ TrackID string }
type AddSubtitle struct{ Track SubtitleTrack }
type RemoveSubtitle struct{ TrackID string }

type ToggleControls struct{ Show bool }
type ToggleSettings struct{}

type BufferingStart struct{}
type BufferingEnd struct{}

// Error records a terminal playback failure; it always pauses playback and
// reveals controls.
type Error struct{ Record ErrorRecord }

// Retry clears the error slot before the adapter reloads the source.
type Retry struct{}

type Ended struct {
	AutoplayNext bool
	HasNext      bool
	CountdownSec int
}

type UpNextStart struct{ Seconds int }
type UpNextTick struct{}
type UpNextCancel struct{}

type ShowOSD struct {
	Kind  OSDKind
	Value float64
	At    time.Time
}

// ExpireOSD drops OSD events created at or before Cutoff.
type ExpireOSD struct{ Cutoff time.Time }

// EngineInit records which playback path the adapter attached.
type EngineInit struct{ Kind EngineKind }

type TracksLoaded struct{ Renditions []AudioRendition }
type LevelsLoaded struct{ Levels []QualityLevel }

// SetQuality selects a quality level; AutoQuality clears the manual override.
type SetQuality struct{ Index int }
type SetAudioTrack struct{ ID string }

// DestroyEngines detaches whatever engine handle is alive.
type DestroyEngines struct{}

func (Reset) isAction()            {}
func (Ready) isAction()            {}
func (Play) isAction()             {}
func (Pause) isAction()            {}
func (TimeUpdate) isAction()       {}
func (Seek) isAction()             {}
func (VolumeChange) isAction()     {}
func (MuteToggle) isAction()       {}
func (RateChange) isAction()       {}
func (BrightnessChange) isAction() {}
func (FullscreenChange) isAction() {}
func (PiPChange) isAction()        {}
func (SubtitleChange) isAction()   {}
func (AudioTrackChange) isAction() {}
func (AddSubtitle) isAction()      {}
func (RemoveSubtitle) isAction()   {}
func (ToggleControls) isAction()   {}
func (ToggleSettings) isAction()   {}
func (BufferingStart) isAction()   {}
func (BufferingEnd) isAction()     {}
func (Error) isAction()            {}
func (Retry) isAction()            {}
func (Ended) isAction()            {}
func (UpNextStart) isAction()      {}
func (UpNextTick) isAction()       {}
func (UpNextCancel) isAction()     {}
func (ShowOSD) isAction()          {}
func (ExpireOSD) isAction()        {}
func (EngineInit) isAction()       {}
func (TracksLoaded) isAction()     {}
func (LevelsLoaded) isAction()     {}
func (SetQuality) isAction()       {}
func (SetAudioTrack) isAction()    {}
func (DestroyEngines) isAction()   {}
