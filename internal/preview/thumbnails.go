// Package preview maps seek-bar hover times onto sprite-sheet regions using a
// WebVTT-style thumbnail index, parsed once per content load.
package preview

import (
	"fmt"
	"strconv"
	"strings"

	"playbackengine/internal/subtitle"
)

// Region is one rectangle inside a sprite sheet.
type Region struct {
	ImageURL string `json:"imageUrl"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type cue struct {
	start  float64
	end    float64
	region Region
}

// Index is an immutable, time-ordered thumbnail cue list.
type Index struct {
	cues []cue
}

// ParseIndex reads a thumbnail VTT index. Cue payloads are sprite references
// of the form "sheet.jpg#xywh=x,y,w,h"; a payload without the fragment maps
// the whole image.
func ParseIndex(content string) (*Index, error) {
	rawCues, _, err := subtitle.Parse(content)
	if err != nil {
		return nil, err
	}

	idx := &Index{cues: make([]cue, 0, len(rawCues))}
	for _, rc := range rawCues {
		region, err := parseRegion(strings.TrimSpace(rc.Text))
		if err != nil {
			return nil, err
		}
		idx.cues = append(idx.cues, cue{start: rc.Start, end: rc.End, region: region})
	}
	return idx, nil
}

// At returns the sprite region containing t. No containing cue means no
// preview, not an error.
func (i *Index) At(t float64) (Region, bool) {
	if i == nil {
		return Region{}, false
	}
	// Cues are ordered by start; binary search for the candidate.
	lo, hi := 0, len(i.cues)
	for lo < hi {
		mid := (lo + hi) / 2
		if i.cues[mid].start <= t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return Region{}, false
	}
	c := i.cues[lo-1]
	if t >= c.start && t < c.end {
		return c.region, true
	}
	return Region{}, false
}

// Len reports how many cues the index holds.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.cues)
}

func parseRegion(payload string) (Region, error) {
	image, fragment, found := strings.Cut(payload, "#")
	region := Region{ImageURL: image}
	if !found {
		return region, nil
	}
	coords, ok := strings.CutPrefix(fragment, "xywh=")
	if !ok {
		return Region{}, fmt.Errorf("unsupported sprite fragment %q", fragment)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("bad xywh fragment %q", fragment)
	}
	vals := make([]int, 4)
	for n, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return Region{}, fmt.Errorf("bad xywh fragment %q", fragment)
		}
		vals[n] = v
	}
	region.X, region.Y, region.Width, region.Height = vals[0], vals[1], vals[2], vals[3]
	return region, nil
}
