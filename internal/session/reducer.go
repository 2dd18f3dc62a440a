package session

import (
	"playbackengine/internal/domain"
)

// maxOSDEvents bounds the transient feedback queue; older entries are dropped
// before their timer-driven expiry when input arrives faster than the TTL.
const maxOSDEvents = 4

// Reduce is the single transition function of the playback session. It is a
// pure function of (state, action); callers own concurrency and side effects.
func Reduce(s domain.PlaybackSession, a domain.Action) domain.PlaybackSession {
	switch act := a.(type) {
	case domain.Reset:
		return newSessionState(act)

	case domain.Ready:
		s.IsReady = true
		s.IsEnded = false
		s.DurationSeconds = act.DurationSeconds
		s.ProgressSeconds = domain.ClampProgress(act.StartAt, act.DurationSeconds)
		return s

	case domain.Play:
		if s.Err != nil {
			return s
		}
		s.IsPlaying = true
		s.IsEnded = false
		s.UpNext = domain.UpNextState{Phase: domain.UpNextHidden}
		return s

	case domain.Pause:
		s.IsPlaying = false
		return s

	case domain.TimeUpdate:
		s.ProgressSeconds = domain.ClampProgress(act.Seconds, s.DurationSeconds)
		return s

	case domain.Seek:
		s.ProgressSeconds = domain.ClampProgress(act.Seconds, s.DurationSeconds)
		s.IsEnded = false
		return s

	case domain.VolumeChange:
		v := domain.ClampVolume(act.Volume)
		s.Volume = v
		if v > 0 {
			s.LastNonMuteVolume = v
			s.IsMuted = false
		} else {
			s.IsMuted = true
		}
		return s

	case domain.MuteToggle:
		if s.IsMuted {
			s.IsMuted = false
			if s.LastNonMuteVolume > 0 {
				s.Volume = s.LastNonMuteVolume
			} else {
				s.Volume = 1
			}
		} else {
			if s.Volume > 0 {
				s.LastNonMuteVolume = s.Volume
			}
			s.IsMuted = true
		}
		return s

	case domain.RateChange:
		if act.Rate > 0 {
			s.PlaybackRate = act.Rate
		}
		return s

	case domain.BrightnessChange:
		s.Brightness = domain.ClampBrightness(act.Brightness)
		return s

	case domain.FullscreenChange:
		s.IsFullscreen = act.Fullscreen
		return s

	case domain.PiPChange:
		s.IsInPictureInPicture = act.PiP
		return s

	case domain.SubtitleChange:
		if act.TrackID == domain.SubtitleOff || s.HasSubtitle(act.TrackID) {
			s.ActiveSubtitleID = act.TrackID
		}
		return s

	case domain.AudioTrackChange:
		if act.TrackID == domain.AudioOriginal || hasDubbedTrack(s, act.TrackID) {
			s.ActiveAudioTrackID = act.TrackID
		}
		return s

	case domain.AddSubtitle:
		if s.HasSubtitle(act.Track.TrackID) || hasSubtitleLabel(s, act.Track.DisplayLabel) {
			return s
		}
		tracks := make([]domain.SubtitleTrack, 0, len(s.AvailableSubtitles)+1)
		tracks = append(tracks, s.AvailableSubtitles...)
		s.AvailableSubtitles = append(tracks, act.Track)
		return s

	case domain.RemoveSubtitle:
		tracks := make([]domain.SubtitleTrack, 0, len(s.AvailableSubtitles))
		for _, t := range s.AvailableSubtitles {
			if t.TrackID != act.TrackID {
				tracks = append(tracks, t)
			}
		}
		s.AvailableSubtitles = tracks
		if s.ActiveSubtitleID == act.TrackID {
			s.ActiveSubtitleID = domain.SubtitleOff
		}
		return s

	case domain.ToggleControls:
		s.ShowControls = act.Show
		return s

	case domain.ToggleSettings:
		s.IsSettingsOpen = !s.IsSettingsOpen
		if s.IsSettingsOpen {
			s.ShowControls = true
		}
		return s

	case domain.BufferingStart:
		s.IsBuffering = true
		return s

	case domain.BufferingEnd:
		s.IsBuffering = false
		return s

	case domain.Error:
		rec := act.Record
		s.Err = &rec
		s.IsPlaying = false
		s.IsBuffering = false
		s.ShowControls = true
		return s

	case domain.Retry:
		s.Err = nil
		s.IsBuffering = true
		return s

	case domain.Ended:
		s.IsPlaying = false
		s.IsEnded = true
		s.ShowControls = true
		if act.AutoplayNext && act.HasNext {
			s.UpNext = domain.UpNextState{
				Phase:            domain.UpNextVisible,
				RemainingSeconds: act.CountdownSec,
			}
		}
		return s

	case domain.UpNextStart:
		s.UpNext = domain.UpNextState{
			Phase:            domain.UpNextCounting,
			RemainingSeconds: act.Seconds,
		}
		return s

	case domain.UpNextTick:
		if s.UpNext.Phase == domain.UpNextCounting && s.UpNext.RemainingSeconds > 0 {
			s.UpNext.RemainingSeconds--
		}
		return s

	case domain.UpNextCancel:
		s.UpNext = domain.UpNextState{Phase: domain.UpNextHidden}
		return s

	case domain.ShowOSD:
		ev := domain.OSDEvent{Kind: act.Kind, Value: act.Value, CreatedAt: act.At}
		osd := make([]domain.OSDEvent, 0, len(s.OSD)+1)
		osd = append(osd, s.OSD...)
		osd = append(osd, ev)
		if len(osd) > maxOSDEvents {
			osd = osd[len(osd)-maxOSDEvents:]
		}
		s.OSD = osd
		return s

	case domain.ExpireOSD:
		osd := make([]domain.OSDEvent, 0, len(s.OSD))
		for _, ev := range s.OSD {
			if ev.CreatedAt.After(act.Cutoff) {
				osd = append(osd, ev)
			}
		}
		s.OSD = osd
		return s

	case domain.EngineInit:
		s.Engine = domain.EngineState{
			Kind:            act.Kind,
			SelectedQuality: s.Engine.SelectedQuality,
			SelectedAudio:   s.Engine.SelectedAudio,
		}
		return s

	case domain.TracksLoaded:
		s.Engine.AudioRenditions = act.Renditions
		return s

	case domain.LevelsLoaded:
		s.Engine.QualityLevels = act.Levels
		return s

	case domain.SetQuality:
		if act.Index == domain.AutoQuality || (act.Index >= 0 && act.Index < len(s.Engine.QualityLevels)) {
			s.Engine.SelectedQuality = act.Index
		}
		return s

	case domain.SetAudioTrack:
		s.Engine.SelectedAudio = act.ID
		return s

	case domain.DestroyEngines:
		s.Engine = domain.EngineState{
			Kind:            domain.EngineNone,
			SelectedQuality: domain.AutoQuality,
		}
		return s
	}

	return s
}

func newSessionState(act domain.Reset) domain.PlaybackSession {
	prefs := act.Prefs.Normalize()

	lastNonMute := prefs.Volume
	if lastNonMute <= 0 {
		lastNonMute = 1
	}

	subtitles := make([]domain.SubtitleTrack, len(act.Subtitles))
	copy(subtitles, act.Subtitles)
	dubbed := make([]domain.DubbedAudioTrack, len(act.Dubbed))
	copy(dubbed, act.Dubbed)

	return domain.PlaybackSession{
		ContentID:             act.ContentID,
		Volume:                prefs.Volume,
		LastNonMuteVolume:     lastNonMute,
		IsMuted:               prefs.IsMuted,
		PlaybackRate:          prefs.PlaybackRate,
		Brightness:            1.0,
		ShowControls:          true,
		ActiveSubtitleID:      preferredSubtitle(subtitles, prefs.PreferredSubtitleLang),
		ActiveAudioTrackID:    preferredAudio(dubbed, prefs.PreferredAudioLang),
		AvailableSubtitles:    subtitles,
		AvailableDubbedTracks: dubbed,
		Engine: domain.EngineState{
			Kind:            domain.EngineNone,
			SelectedQuality: prefs.PreferredQuality,
		},
		UpNext: domain.UpNextState{Phase: domain.UpNextHidden},
	}
}

func preferredSubtitle(tracks []domain.SubtitleTrack, lang string) string {
	if lang != "" {
		for _, t := range tracks {
			if t.LanguageLabel == lang {
				return t.TrackID
			}
		}
	}
	return domain.SubtitleOff
}

func preferredAudio(tracks []domain.DubbedAudioTrack, lang string) string {
	if lang != "" {
		for _, t := range tracks {
			if t.Language == lang {
				return t.Language
			}
		}
	}
	return domain.AudioOriginal
}

func hasDubbedTrack(s domain.PlaybackSession, id string) bool {
	for _, t := range s.AvailableDubbedTracks {
		if t.Language == id {
			return true
		}
	}
	for _, r := range s.Engine.AudioRenditions {
		if r.ID == id {
			return true
		}
	}
	return false
}

func hasSubtitleLabel(s domain.PlaybackSession, label string) bool {
	for _, t := range s.AvailableSubtitles {
		if t.DisplayLabel == label {
			return true
		}
	}
	return false
}
