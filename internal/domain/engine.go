package domain

// EngineKind tags the single active playback path. Exactly one path is alive
// at a time; "none" means no source attached yet.
type EngineKind string

const (
	EngineNone     EngineKind = "none"
	EngineDirect   EngineKind = "direct"
	EngineAdaptive EngineKind = "adaptive"
	EngineDRM      EngineKind = "drm"
)

// QualityLevel is one adaptive-bitrate variant.
type QualityLevel struct {
	Index   int   `json:"index"`
	Height  int   `json:"height"`
	Bitrate int64 `json:"bitrate"`
}

// AudioRendition is an audio track embedded in the adaptive manifest.
type AudioRendition struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Name     string `json:"name"`
}

// AutoQuality selects adaptive switching with no manual override.
const AutoQuality = -1

// EngineState is the reducer's view of the attached streaming engine.
type EngineState struct {
	Kind            EngineKind       `json:"kind"`
	QualityLevels   []QualityLevel   `json:"qualityLevels,omitempty"`
	AudioRenditions []AudioRendition `json:"audioRenditions,omitempty"`
	SelectedQuality int              `json:"selectedQuality"`
	SelectedAudio   string           `json:"selectedAudio,omitempty"`
}
