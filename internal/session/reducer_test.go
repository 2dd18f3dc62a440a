package session

import (
	"testing"
	"time"

	"playbackengine/internal/domain"
)

func resetAction() domain.Reset {
	return domain.Reset{
		ContentID: "movie-1",
		Prefs:     domain.DefaultPreferences(),
		Subtitles: []domain.SubtitleTrack{
			{TrackID: "en", LanguageLabel: "English", DisplayLabel: "English"},
			{TrackID: "ru", LanguageLabel: "Russian", DisplayLabel: "Russian"},
		},
		Dubbed: []domain.DubbedAudioTrack{
			{Language: "fr", URL: "http://cdn/fr.mp4"},
		},
	}
}

func readyState() domain.PlaybackSession {
	s := Reduce(domain.PlaybackSession{}, resetAction())
	return Reduce(s, domain.Ready{DurationSeconds: 600})
}

func TestReduce_Reset_Defaults(t *testing.T) {
	s := Reduce(domain.PlaybackSession{}, resetAction())

	if s.ContentID != "movie-1" {
		t.Fatalf("contentID = %q", s.ContentID)
	}
	if s.Volume != 1.0 || s.IsMuted {
		t.Fatalf("volume = %v, muted = %v", s.Volume, s.IsMuted)
	}
	if s.Brightness != 1.0 {
		t.Fatalf("brightness = %v, want 1.0", s.Brightness)
	}
	if !s.ShowControls {
		t.Fatal("controls should start visible")
	}
	if s.ActiveSubtitleID != domain.SubtitleOff {
		t.Fatalf("activeSubtitleID = %q, want off", s.ActiveSubtitleID)
	}
	if s.ActiveAudioTrackID != domain.AudioOriginal {
		t.Fatalf("activeAudioTrackID = %q, want original", s.ActiveAudioTrackID)
	}
	if s.Engine.Kind != domain.EngineNone {
		t.Fatalf("engine kind = %q, want none", s.Engine.Kind)
	}
	if s.UpNext.Phase != domain.UpNextHidden {
		t.Fatalf("upnext phase = %q, want hidden", s.UpNext.Phase)
	}
}

func TestReduce_Reset_PreferredLanguages(t *testing.T) {
	act := resetAction()
	act.Prefs.PreferredSubtitleLang = "Russian"
	act.Prefs.PreferredAudioLang = "fr"

	s := Reduce(domain.PlaybackSession{}, act)
	if s.ActiveSubtitleID != "ru" {
		t.Fatalf("activeSubtitleID = %q, want ru", s.ActiveSubtitleID)
	}
	if s.ActiveAudioTrackID != "fr" {
		t.Fatalf("activeAudioTrackID = %q, want fr", s.ActiveAudioTrackID)
	}
}

func TestReduce_Reset_PreferredLanguageMissing(t *testing.T) {
	act := resetAction()
	act.Prefs.PreferredSubtitleLang = "Klingon"

	s := Reduce(domain.PlaybackSession{}, act)
	if s.ActiveSubtitleID != domain.SubtitleOff {
		t.Fatalf("activeSubtitleID = %q, want off", s.ActiveSubtitleID)
	}
}

func TestReduce_Ready_ClampsStartPosition(t *testing.T) {
	s := Reduce(domain.PlaybackSession{}, resetAction())
	s = Reduce(s, domain.Ready{DurationSeconds: 100, StartAt: 250})

	if !s.IsReady {
		t.Fatal("not ready")
	}
	if s.ProgressSeconds != 100 {
		t.Fatalf("progress = %v, want clamped to 100", s.ProgressSeconds)
	}
}

func TestReduce_PlayPause(t *testing.T) {
	s := readyState()

	s = Reduce(s, domain.Play{})
	if !s.IsPlaying {
		t.Fatal("should be playing")
	}
	s = Reduce(s, domain.Pause{})
	if s.IsPlaying {
		t.Fatal("should be paused")
	}
}

func TestReduce_Play_BlockedByError(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.Error{Record: domain.ErrorRecord{Message: "boom", CanRetry: true}})
	s = Reduce(s, domain.Play{})

	if s.IsPlaying {
		t.Fatal("play must be ignored while an error is present")
	}
}

func TestReduce_Play_ResetsEndedAndUpNext(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.Ended{AutoplayNext: true, HasNext: true, CountdownSec: 10})
	s = Reduce(s, domain.Play{})

	if s.IsEnded {
		t.Fatal("ended flag should clear on play")
	}
	if s.UpNext.Phase != domain.UpNextHidden {
		t.Fatalf("upnext phase = %q, want hidden", s.UpNext.Phase)
	}
}

func TestReduce_Seek_Clamps(t *testing.T) {
	s := readyState()

	s = Reduce(s, domain.Seek{Seconds: -20})
	if s.ProgressSeconds != 0 {
		t.Fatalf("progress = %v, want 0", s.ProgressSeconds)
	}
	s = Reduce(s, domain.Seek{Seconds: 9999})
	if s.ProgressSeconds != 600 {
		t.Fatalf("progress = %v, want 600", s.ProgressSeconds)
	}
}

func TestReduce_VolumeChange_Clamps(t *testing.T) {
	s := readyState()

	s = Reduce(s, domain.VolumeChange{Volume: 1.7})
	if s.Volume != 1 {
		t.Fatalf("volume = %v, want 1", s.Volume)
	}
	s = Reduce(s, domain.VolumeChange{Volume: -0.3})
	if s.Volume != 0 {
		t.Fatalf("volume = %v, want 0", s.Volume)
	}
}

func TestReduce_VolumeZero_Mutes(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.VolumeChange{Volume: 0})

	if !s.IsMuted {
		t.Fatal("volume 0 must mute")
	}
	if s.LastNonMuteVolume != 1 {
		t.Fatalf("lastNonMuteVolume = %v, want preserved 1", s.LastNonMuteVolume)
	}
}

func TestReduce_VolumeChange_Unmutes(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.MuteToggle{})
	s = Reduce(s, domain.VolumeChange{Volume: 0.4})

	if s.IsMuted {
		t.Fatal("setting a positive volume must unmute")
	}
	if s.LastNonMuteVolume != 0.4 {
		t.Fatalf("lastNonMuteVolume = %v, want 0.4", s.LastNonMuteVolume)
	}
}

func TestReduce_MuteToggle_RestoresVolume(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.VolumeChange{Volume: 0.6})

	s = Reduce(s, domain.MuteToggle{})
	if !s.IsMuted {
		t.Fatal("should be muted")
	}
	if s.EffectiveVolume() != 0 {
		t.Fatalf("effective volume = %v, want 0", s.EffectiveVolume())
	}

	s = Reduce(s, domain.MuteToggle{})
	if s.IsMuted {
		t.Fatal("should be unmuted")
	}
	if s.Volume != 0.6 {
		t.Fatalf("volume = %v, want restored 0.6", s.Volume)
	}
}

func TestReduce_MuteToggle_FallbackVolume(t *testing.T) {
	// Stored prefs can carry volume 0; unmuting must still restore something
	// audible.
	act := resetAction()
	act.Prefs.Volume = 0
	s := Reduce(domain.PlaybackSession{}, act)
	s.LastNonMuteVolume = 0

	s = Reduce(s, domain.MuteToggle{})
	s = Reduce(s, domain.MuteToggle{})
	if s.Volume != 1 {
		t.Fatalf("volume = %v, want fallback 1", s.Volume)
	}
}

func TestReduce_RateChange_RejectsNonPositive(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.RateChange{Rate: 1.5})
	if s.PlaybackRate != 1.5 {
		t.Fatalf("rate = %v, want 1.5", s.PlaybackRate)
	}
	s = Reduce(s, domain.RateChange{Rate: 0})
	if s.PlaybackRate != 1.5 {
		t.Fatalf("rate = %v, want unchanged 1.5", s.PlaybackRate)
	}
}

func TestReduce_Brightness_Clamps(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.BrightnessChange{Brightness: 3.0})
	if s.Brightness != domain.MaxBrightness {
		t.Fatalf("brightness = %v, want %v", s.Brightness, domain.MaxBrightness)
	}
	s = Reduce(s, domain.BrightnessChange{Brightness: 0.1})
	if s.Brightness != domain.MinBrightness {
		t.Fatalf("brightness = %v, want %v", s.Brightness, domain.MinBrightness)
	}
}

func TestReduce_SubtitleChange_UnknownTrackIgnored(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.SubtitleChange{TrackID: "nope"})
	if s.ActiveSubtitleID != domain.SubtitleOff {
		t.Fatalf("activeSubtitleID = %q, want off", s.ActiveSubtitleID)
	}
	s = Reduce(s, domain.SubtitleChange{TrackID: "en"})
	if s.ActiveSubtitleID != "en" {
		t.Fatalf("activeSubtitleID = %q, want en", s.ActiveSubtitleID)
	}
}

func TestReduce_AddSubtitle_RejectsDuplicates(t *testing.T) {
	s := readyState()
	track := domain.SubtitleTrack{TrackID: "local:x", DisplayLabel: "Uploaded", Local: true}

	s = Reduce(s, domain.AddSubtitle{Track: track})
	if len(s.AvailableSubtitles) != 3 {
		t.Fatalf("tracks = %d, want 3", len(s.AvailableSubtitles))
	}

	// Same id again.
	s = Reduce(s, domain.AddSubtitle{Track: track})
	if len(s.AvailableSubtitles) != 3 {
		t.Fatalf("tracks = %d after duplicate id, want 3", len(s.AvailableSubtitles))
	}

	// Different id, same display label.
	s = Reduce(s, domain.AddSubtitle{Track: domain.SubtitleTrack{TrackID: "local:y", DisplayLabel: "Uploaded"}})
	if len(s.AvailableSubtitles) != 3 {
		t.Fatalf("tracks = %d after duplicate label, want 3", len(s.AvailableSubtitles))
	}
}

func TestReduce_RemoveSubtitle_DeactivatesActive(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.SubtitleChange{TrackID: "en"})
	s = Reduce(s, domain.RemoveSubtitle{TrackID: "en"})

	if s.HasSubtitle("en") {
		t.Fatal("track should be removed")
	}
	if s.ActiveSubtitleID != domain.SubtitleOff {
		t.Fatalf("activeSubtitleID = %q, want off", s.ActiveSubtitleID)
	}
}

func TestReduce_RemoveSubtitle_KeepsOtherActive(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.SubtitleChange{TrackID: "ru"})
	s = Reduce(s, domain.RemoveSubtitle{TrackID: "en"})

	if s.ActiveSubtitleID != "ru" {
		t.Fatalf("activeSubtitleID = %q, want ru", s.ActiveSubtitleID)
	}
}

func TestReduce_ToggleSettings_ForcesControls(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.ToggleControls{Show: false})
	s = Reduce(s, domain.ToggleSettings{})

	if !s.IsSettingsOpen {
		t.Fatal("settings should open")
	}
	if !s.ShowControls {
		t.Fatal("opening settings must show controls")
	}
}

func TestReduce_Error_StopsPlayback(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.Play{})
	s = Reduce(s, domain.BufferingStart{})
	s = Reduce(s, domain.ToggleControls{Show: false})

	s = Reduce(s, domain.Error{Record: domain.ErrorRecord{Message: "network", CanRetry: true}})
	if s.IsPlaying || s.IsBuffering {
		t.Fatal("error must stop playback and clear buffering")
	}
	if !s.ShowControls {
		t.Fatal("error must surface controls")
	}
	if s.Err == nil || !s.Err.CanRetry {
		t.Fatalf("err = %+v", s.Err)
	}
}

func TestReduce_Retry_ClearsError(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.Error{Record: domain.ErrorRecord{Message: "network", CanRetry: true}})
	s = Reduce(s, domain.Retry{})

	if s.Err != nil {
		t.Fatal("retry must clear the error")
	}
	if !s.IsBuffering {
		t.Fatal("retry should enter buffering until the engine reports ready")
	}
}

func TestReduce_Ended_UpNextGating(t *testing.T) {
	tests := []struct {
		name     string
		autoplay bool
		hasNext  bool
		want     domain.UpNextPhase
	}{
		{"autoplay with next", true, true, domain.UpNextVisible},
		{"autoplay without next", true, false, domain.UpNextHidden},
		{"no autoplay with next", false, true, domain.UpNextHidden},
		{"no autoplay no next", false, false, domain.UpNextHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readyState()
			s = Reduce(s, domain.Ended{AutoplayNext: tt.autoplay, HasNext: tt.hasNext, CountdownSec: 10})
			if !s.IsEnded || s.IsPlaying {
				t.Fatal("ended must stop playback")
			}
			if s.UpNext.Phase != tt.want {
				t.Fatalf("phase = %q, want %q", s.UpNext.Phase, tt.want)
			}
		})
	}
}

func TestReduce_UpNext_Countdown(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.UpNextStart{Seconds: 3})
	if s.UpNext.Phase != domain.UpNextCounting || s.UpNext.RemainingSeconds != 3 {
		t.Fatalf("upnext = %+v", s.UpNext)
	}

	for i := 0; i < 5; i++ {
		s = Reduce(s, domain.UpNextTick{})
	}
	if s.UpNext.RemainingSeconds != 0 {
		t.Fatalf("remaining = %d, want 0 (never negative)", s.UpNext.RemainingSeconds)
	}

	s = Reduce(s, domain.UpNextCancel{})
	if s.UpNext.Phase != domain.UpNextHidden {
		t.Fatalf("phase = %q, want hidden", s.UpNext.Phase)
	}
}

func TestReduce_UpNextTick_IgnoredWhenHidden(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.UpNextTick{})
	if s.UpNext.RemainingSeconds != 0 {
		t.Fatalf("remaining = %d", s.UpNext.RemainingSeconds)
	}
}

func TestReduce_OSD_BoundedQueue(t *testing.T) {
	s := readyState()
	base := time.Now()
	for i := 0; i < 8; i++ {
		s = Reduce(s, domain.ShowOSD{Kind: domain.OSDVolume, Value: float64(i), At: base.Add(time.Duration(i) * time.Millisecond)})
	}
	if len(s.OSD) != maxOSDEvents {
		t.Fatalf("osd len = %d, want %d", len(s.OSD), maxOSDEvents)
	}
	// Newest entries survive.
	if s.OSD[len(s.OSD)-1].Value != 7 {
		t.Fatalf("last osd value = %v, want 7", s.OSD[len(s.OSD)-1].Value)
	}
}

func TestReduce_ExpireOSD(t *testing.T) {
	s := readyState()
	base := time.Now()
	s = Reduce(s, domain.ShowOSD{Kind: domain.OSDPlay, At: base})
	s = Reduce(s, domain.ShowOSD{Kind: domain.OSDVolume, At: base.Add(500 * time.Millisecond)})

	s = Reduce(s, domain.ExpireOSD{Cutoff: base})
	if len(s.OSD) != 1 {
		t.Fatalf("osd len = %d, want 1", len(s.OSD))
	}
	if s.OSD[0].Kind != domain.OSDVolume {
		t.Fatalf("surviving kind = %q", s.OSD[0].Kind)
	}
}

func TestReduce_SetQuality_Validates(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.LevelsLoaded{Levels: []domain.QualityLevel{
		{Index: 0, Height: 480}, {Index: 1, Height: 1080},
	}})

	s = Reduce(s, domain.SetQuality{Index: 1})
	if s.Engine.SelectedQuality != 1 {
		t.Fatalf("quality = %d, want 1", s.Engine.SelectedQuality)
	}
	s = Reduce(s, domain.SetQuality{Index: 7})
	if s.Engine.SelectedQuality != 1 {
		t.Fatalf("quality = %d, want unchanged 1", s.Engine.SelectedQuality)
	}
	s = Reduce(s, domain.SetQuality{Index: domain.AutoQuality})
	if s.Engine.SelectedQuality != domain.AutoQuality {
		t.Fatalf("quality = %d, want auto", s.Engine.SelectedQuality)
	}
}

func TestReduce_DestroyEngines(t *testing.T) {
	s := readyState()
	s = Reduce(s, domain.EngineInit{Kind: domain.EngineAdaptive})
	s = Reduce(s, domain.DestroyEngines{})

	if s.Engine.Kind != domain.EngineNone {
		t.Fatalf("kind = %q, want none", s.Engine.Kind)
	}
	if s.Engine.SelectedQuality != domain.AutoQuality {
		t.Fatalf("quality = %d, want auto", s.Engine.SelectedQuality)
	}
}

func TestReduce_CopyOnWrite_Subtitles(t *testing.T) {
	s1 := readyState()
	s2 := Reduce(s1, domain.AddSubtitle{Track: domain.SubtitleTrack{TrackID: "local:z", DisplayLabel: "Z"}})

	if len(s1.AvailableSubtitles) != 2 {
		t.Fatalf("original state mutated: %d tracks", len(s1.AvailableSubtitles))
	}
	if len(s2.AvailableSubtitles) != 3 {
		t.Fatalf("new state tracks = %d, want 3", len(s2.AvailableSubtitles))
	}
}
