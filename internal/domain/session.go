package domain

import "time"

const (
	// Sentinel track ids for TrackSelection.
	SubtitleOff   = "off"
	AudioOriginal = "original"

	MinBrightness = 0.5
	MaxBrightness = 1.5

	// OSD events expire this long after creation.
	OSDTTL = time.Second
)

// OSDKind names the transient feedback an OSD event renders.
type OSDKind string

const (
	OSDPlay       OSDKind = "play"
	OSDPause      OSDKind = "pause"
	OSDSeekFwd    OSDKind = "seek-forward"
	OSDSeekBack   OSDKind = "seek-backward"
	OSDVolume     OSDKind = "volume"
	OSDBrightness OSDKind = "brightness"
	OSDMute       OSDKind = "mute"
	OSDRate       OSDKind = "rate"
)

// OSDEvent is ephemeral on-screen feedback, keyed by creation time.
type OSDEvent struct {
	Kind      OSDKind   `json:"kind"`
	Value     float64   `json:"value,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorRecord is the single error surface of a session. CanRetry is derived
// from the error class: media/network failures retry, DRM policy failures
// do not.
type ErrorRecord struct {
	Message  string `json:"message"`
	CanRetry bool   `json:"canRetry"`
}

// UpNextPhase is the countdown state entered when content ends with autoplay
// enabled and a queued next item.
type UpNextPhase string

const (
	UpNextHidden   UpNextPhase = "hidden"
	UpNextVisible  UpNextPhase = "visible"
	UpNextCounting UpNextPhase = "counting"
)

type UpNextState struct {
	Phase            UpNextPhase `json:"phase"`
	RemainingSeconds int         `json:"remainingSeconds,omitempty"`
}

// PlaybackSession is the authoritative state of one mounted content item.
// It is only ever updated through the reducer; readers get copies.
type PlaybackSession struct {
	ContentID ContentID `json:"contentId"`

	IsPlaying       bool    `json:"isPlaying"`
	IsReady         bool    `json:"isReady"`
	IsBuffering     bool    `json:"isBuffering"`
	IsEnded         bool    `json:"isEnded"`
	ProgressSeconds float64 `json:"progressSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`

	Volume            float64 `json:"volume"`
	LastNonMuteVolume float64 `json:"lastNonMuteVolume"`
	IsMuted           bool    `json:"isMuted"`
	PlaybackRate      float64 `json:"playbackRate"`
	Brightness        float64 `json:"brightness"`

	IsFullscreen         bool `json:"isFullscreen"`
	IsInPictureInPicture bool `json:"isInPictureInPicture"`
	ShowControls         bool `json:"showControls"`
	IsSettingsOpen       bool `json:"isSettingsOpen"`

	ActiveSubtitleID   string `json:"activeSubtitleId"`
	ActiveAudioTrackID string `json:"activeAudioTrackId"`

	AvailableSubtitles    []SubtitleTrack    `json:"availableSubtitles"`
	AvailableDubbedTracks []DubbedAudioTrack `json:"availableDubbedTracks"`

	Engine EngineState `json:"engine"`

	UpNext UpNextState  `json:"upNext"`
	Err    *ErrorRecord `json:"error,omitempty"`
	OSD    []OSDEvent   `json:"osd,omitempty"`
}

// EffectiveVolume is what the media surface should actually apply.
func (s PlaybackSession) EffectiveVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return s.Volume
}

// HasSubtitle reports whether id is present in AvailableSubtitles.
func (s PlaybackSession) HasSubtitle(id string) bool {
	for _, t := range s.AvailableSubtitles {
		if t.TrackID == id {
			return true
		}
	}
	return false
}

func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ClampBrightness(b float64) float64 {
	if b < MinBrightness {
		return MinBrightness
	}
	if b > MaxBrightness {
		return MaxBrightness
	}
	return b
}

func ClampProgress(p, duration float64) float64 {
	if p < 0 {
		return 0
	}
	if duration > 0 && p > duration {
		return duration
	}
	return p
}
