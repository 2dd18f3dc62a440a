package domain

// Preferences are the persisted user defaults, read once at session start and
// written through on change.
type Preferences struct {
	Volume                    float64 `json:"volume"`
	IsMuted                   bool    `json:"isMuted"`
	PlaybackRate              float64 `json:"playbackRate"`
	SeekIntervalSeconds       float64 `json:"seekIntervalSeconds"`
	Autoplay                  bool    `json:"autoplay"`
	UpNextCountdownSeconds    int     `json:"upNextCountdownSeconds"`
	PreferredSubtitleLang     string  `json:"preferredSubtitleLang"`
	PreferredAudioLang        string  `json:"preferredAudioLang"`
	PreferredQuality          int     `json:"preferredQuality"`
	SubtitleFontSize          int     `json:"subtitleFontSize"`
	SubtitleTextColor         string  `json:"subtitleTextColor"`
	SubtitleBackgroundOpacity float64 `json:"subtitleBackgroundOpacity"`
}

// DefaultPreferences returns the defaults used when no stored document exists.
func DefaultPreferences() Preferences {
	return Preferences{
		Volume:                    1.0,
		PlaybackRate:              1.0,
		SeekIntervalSeconds:       10,
		Autoplay:                  true,
		UpNextCountdownSeconds:    10,
		PreferredSubtitleLang:     "",
		PreferredAudioLang:        "",
		PreferredQuality:          AutoQuality,
		SubtitleFontSize:          100,
		SubtitleTextColor:         "#ffffff",
		SubtitleBackgroundOpacity: 0.5,
	}
}

// Normalize clamps stored values back into their valid ranges.
func (p Preferences) Normalize() Preferences {
	p.Volume = ClampVolume(p.Volume)
	if p.PlaybackRate <= 0 {
		p.PlaybackRate = 1.0
	}
	if p.SeekIntervalSeconds <= 0 {
		p.SeekIntervalSeconds = 10
	}
	if p.UpNextCountdownSeconds <= 0 {
		p.UpNextCountdownSeconds = 10
	}
	if p.SubtitleBackgroundOpacity < 0 || p.SubtitleBackgroundOpacity > 1 {
		p.SubtitleBackgroundOpacity = 0.5
	}
	return p
}

// WatchProgress is the persisted playback position for one content item.
type WatchProgress struct {
	ContentID ContentID `json:"contentId"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
}
