package captions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timestamp offsets for the X-TIMESTAMP-MAP header. VOD documents use the
// default; DASH caption segments need the shorter offset to line up with
// segment timing.
const (
	DefaultTimestampOffset = "900000"
	DashTimestampOffset    = "200000"
)

// regionGeometry is a region's parsed percentage geometry.
type regionGeometry struct {
	originX, originY float64
	extentW, extentH float64
}

// position renders the WebVTT cue settings for the region. The horizontal
// midpoint snaps to 50 when near-centre so that authoring-tool jitter does
// not pin an essentially centred cue off to one side.
func (g regionGeometry) position() string {
	mid := g.originX + g.extentW/2
	if mid > 45 && mid < 55 {
		mid = 50
	}
	return fmt.Sprintf("line:%s align:center position:%s size:%s",
		pct(g.originY), pct(mid), pct(g.extentW))
}

// pct renders a percentage value rounded to an integer. A rounded value of
// exactly zero is emitted bare, without the percent suffix.
func pct(v float64) string {
	rounded := math.Round(v)
	s := strconv.FormatFloat(math.Abs(rounded), 'f', 0, 64)
	if rounded == 0 {
		return s
	}
	return s + "%"
}

// parsePercentPair splits a TTML two-value attribute like "74% 12%" into its
// numeric parts.
func parsePercentPair(s string) (float64, float64, bool) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, errA := strconv.ParseFloat(strings.TrimSuffix(parts[0], "%"), 64)
	b, errB := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

// FormatWebVTT renders a caption Document as WebVTT, one output line per
// slice element. tsOffset goes into the X-TIMESTAMP-MAP header; an empty
// string selects DefaultTimestampOffset.
//
// Styles that define both a foreground and a background color become STYLE
// blocks; others are skipped but may still be referenced as text-run class
// names. Cues referencing a region with full geometry get position settings
// on their timing line; unmatched style and region references are ignored.
func FormatWebVTT(doc Document, tsOffset string) []string {
	if tsOffset == "" {
		tsOffset = DefaultTimestampOffset
	}

	geometry := make(map[string]regionGeometry)
	for _, region := range doc.Regions {
		if region.Origin == "" || region.Extent == "" || region.DisplayAlign == "" {
			continue
		}
		ox, oy, okO := parsePercentPair(region.Origin)
		ew, eh, okE := parsePercentPair(region.Extent)
		if !okO || !okE {
			continue
		}
		geometry[region.ID] = regionGeometry{originX: ox, originY: oy, extentW: ew, extentH: eh}
	}

	out := []string{
		"WEBVTT",
		"X-TIMESTAMP-MAP=MPEGTS:" + tsOffset + ",LOCAL:00:00:00.000",
		"",
	}

	for _, style := range doc.Styles {
		if style.Color == "" || style.BackgroundColor == "" {
			continue
		}
		out = append(out,
			"STYLE",
			"::cue(."+style.ID+") {",
			"  color: "+style.Color+";",
			"  background-color: "+style.BackgroundColor+";",
			"}",
			"",
		)
	}

	for _, sub := range doc.Subtitles {
		timing := sub.Begin + " --> " + sub.End
		if g, ok := geometry[sub.RegionID]; ok {
			timing += " " + g.position()
		}
		out = append(out, timing)

		parts := make([]string, 0, len(sub.Spans))
		for _, span := range sub.Spans {
			if span.StyleID != "" {
				parts = append(parts, "<c."+span.StyleID+">"+span.Text+"</c>")
			} else {
				parts = append(parts, span.Text)
			}
		}
		out = append(out, strings.Join(parts, " "))
		out = append(out, "")
	}

	return out
}
