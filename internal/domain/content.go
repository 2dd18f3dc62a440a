package domain

import "errors"

type ContentID string

// DRMDescriptor carries what the DRM engine needs to acquire a license.
type DRMDescriptor struct {
	LicenseURL string            `json:"licenseUrl"`
	KeySystem  string            `json:"keySystem"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// SubtitleTrack is one selectable subtitle entry. SourceURL is either a
// remote URL or a local blob reference owned by the subtitle manager.
type SubtitleTrack struct {
	TrackID       string `json:"trackId"`
	LanguageLabel string `json:"languageLabel"`
	DisplayLabel  string `json:"displayLabel"`
	SourceURL     string `json:"sourceUrl"`
	Local         bool   `json:"local,omitempty"`
}

type DubbedAudioTrack struct {
	Language string `json:"language"`
	URL      string `json:"url"`
}

// ContentDescriptor is everything the engine needs to play one item.
type ContentDescriptor struct {
	ID                ContentID          `json:"id"`
	VideoURL          string             `json:"videoUrl"`
	DRM               *DRMDescriptor     `json:"drm,omitempty"`
	Subtitles         []SubtitleTrack    `json:"subtitles"`
	DubbedAudioTracks []DubbedAudioTrack `json:"dubbedAudioTracks,omitempty"`
	ThumbnailIndexURL string             `json:"thumbnailIndexUrl,omitempty"`
	IntroStart        float64            `json:"introStart,omitempty"`
	IntroEnd          float64            `json:"introEnd,omitempty"`
	AudioCodecs       []string           `json:"audioCodecs,omitempty"`
	NextContentID     ContentID          `json:"nextContentId,omitempty"`
}

// Validate checks domain invariants for ContentDescriptor.
func (c ContentDescriptor) Validate() error {
	if c.ID == "" {
		return errors.New("content id is required")
	}
	if c.VideoURL == "" {
		return errors.New("videoUrl is required")
	}
	if c.DRM != nil && c.DRM.LicenseURL == "" {
		return errors.New("drm licenseUrl is required")
	}
	return nil
}
