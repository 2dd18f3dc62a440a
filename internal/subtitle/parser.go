package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cue is one timed caption.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Format names the two accepted plain-text caption formats.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

var (
	ErrEmptySubtitle   = errors.New("subtitle contains no cues")
	ErrUnorderedCues   = errors.New("subtitle cues are not ordered")
	ErrInvalidSubtitle = errors.New("invalid subtitle format")
)

// DetectFormat sniffs the caption format from content. WebVTT files start
// with a metadata header; everything else is treated as numbered-cue SRT.
func DetectFormat(content string) Format {
	head := strings.TrimPrefix(strings.TrimSpace(content), "\uFEFF")
	if strings.HasPrefix(head, "WEBVTT") {
		return FormatVTT
	}
	return FormatSRT
}

// Parse reads either format into an ordered, non-empty cue list.
func Parse(content string) ([]Cue, Format, error) {
	format := DetectFormat(content)
	cues, err := parseCues(content, format)
	if err != nil {
		return nil, format, err
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start < cues[i-1].Start {
			return nil, format, ErrUnorderedCues
		}
	}
	return cues, format, nil
}

func parseCues(content string, format Format) ([]Cue, error) {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}
		if format == FormatVTT && isVTTHeader(lines[0]) {
			continue
		}
		// Optional numeric cue identifier before the timing line.
		if !strings.Contains(lines[0], "-->") {
			lines = lines[1:]
			if len(lines) == 0 {
				continue
			}
		}
		if !strings.Contains(lines[0], "-->") {
			continue
		}
		start, end, err := parseTiming(lines[0])
		if err != nil {
			return nil, err
		}
		text := strings.Join(lines[1:], "\n")
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Start: start, End: end, Text: text})
	}
	if len(cues) == 0 {
		return nil, ErrEmptySubtitle
	}
	return cues, nil
}

func isVTTHeader(line string) bool {
	return strings.HasPrefix(line, "WEBVTT") ||
		strings.HasPrefix(line, "NOTE") ||
		strings.HasPrefix(line, "STYLE") ||
		strings.HasPrefix(line, "REGION")
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseTiming(line string) (start, end float64, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: bad timing line %q", ErrInvalidSubtitle, line)
	}
	start, err = ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// VTT cue settings may follow the end timestamp.
	endRaw := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endRaw) == 0 {
		return 0, 0, fmt.Errorf("%w: missing end timestamp", ErrInvalidSubtitle)
	}
	end, err = ParseTimestamp(endRaw[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: cue ends before it starts", ErrInvalidSubtitle)
	}
	return start, end, nil
}

// ParseTimestamp reads HH:MM:SS.mmm, MM:SS.mmm, or the SRT comma variant into
// seconds.
func ParseTimestamp(raw string) (float64, error) {
	raw = strings.ReplaceAll(raw, ",", ".")
	fields := strings.Split(raw, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("%w: bad timestamp %q", ErrInvalidSubtitle, raw)
	}

	var hours, minutes int
	var seconds float64
	var err error

	if len(fields) == 3 {
		if hours, err = strconv.Atoi(fields[0]); err != nil {
			return 0, fmt.Errorf("%w: bad timestamp %q", ErrInvalidSubtitle, raw)
		}
		fields = fields[1:]
	}
	if minutes, err = strconv.Atoi(fields[0]); err != nil {
		return 0, fmt.Errorf("%w: bad timestamp %q", ErrInvalidSubtitle, raw)
	}
	if seconds, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, fmt.Errorf("%w: bad timestamp %q", ErrInvalidSubtitle, raw)
	}
	if minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("%w: negative timestamp %q", ErrInvalidSubtitle, raw)
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}
