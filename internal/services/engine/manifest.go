package engine

import (
	"strconv"
	"strings"

	"playbackengine/internal/domain"
)

// parseMasterPlaylist extracts quality levels and embedded audio renditions
// from an HLS master playlist. Variant order in the manifest determines the
// level index.
func parseMasterPlaylist(content string) ([]domain.QualityLevel, []domain.AudioRendition) {
	var levels []domain.QualityLevel
	var renditions []domain.AudioRendition

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			attrs := parseAttrs(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			level := domain.QualityLevel{Index: len(levels)}
			if bw, err := strconv.ParseInt(attrs["BANDWIDTH"], 10, 64); err == nil {
				level.Bitrate = bw
			}
			if res := attrs["RESOLUTION"]; res != "" {
				if idx := strings.IndexByte(res, 'x'); idx > 0 {
					if h, err := strconv.Atoi(res[idx+1:]); err == nil {
						level.Height = h
					}
				}
			}
			levels = append(levels, level)

		case strings.HasPrefix(line, "#EXT-X-MEDIA:"):
			attrs := parseAttrs(strings.TrimPrefix(line, "#EXT-X-MEDIA:"))
			if attrs["TYPE"] != "AUDIO" {
				continue
			}
			rendition := domain.AudioRendition{
				ID:       attrs["GROUP-ID"] + ":" + attrs["NAME"],
				Language: attrs["LANGUAGE"],
				Name:     attrs["NAME"],
			}
			renditions = append(renditions, rendition)
		}
	}
	return levels, renditions
}

// parseAttrs splits an m3u8 attribute list, honoring quoted values that may
// contain commas.
func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	var key strings.Builder
	var val strings.Builder
	inKey := true
	inQuote := false

	flush := func() {
		if key.Len() > 0 {
			attrs[key.String()] = val.String()
		}
		key.Reset()
		val.Reset()
		inKey = true
	}

	for _, r := range raw {
		switch {
		case inQuote:
			if r == '"' {
				inQuote = false
			} else {
				val.WriteRune(r)
			}
		case r == '"':
			inQuote = true
		case inKey && r == '=':
			inKey = false
		case r == ',':
			flush()
		case inKey:
			key.WriteRune(r)
		default:
			val.WriteRune(r)
		}
	}
	flush()
	return attrs
}
