package captions

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cue(n int, region string) Subtitle {
	return Subtitle{
		ID:       fmt.Sprintf("sub%d", n),
		RegionID: region,
		Begin:    fmt.Sprintf("00:00:%02d.000", n*4),
		End:      fmt.Sprintf("00:00:%02d.000", n*4+3),
		Spans:    []TextSpan{{Text: fmt.Sprintf("cue %d", n), StyleID: "S1"}},
	}
}

func TestFormatHeaderAndOffsets(t *testing.T) {
	lines := FormatWebVTT(Document{}, "")
	require.True(t, len(lines) >= 3)
	assert.Equal(t, "WEBVTT", lines[0])
	assert.Equal(t, "X-TIMESTAMP-MAP=MPEGTS:900000,LOCAL:00:00:00.000", lines[1])
	assert.Equal(t, "", lines[2])

	lines = FormatWebVTT(Document{}, DashTimestampOffset)
	assert.Equal(t, "X-TIMESTAMP-MAP=MPEGTS:200000,LOCAL:00:00:00.000", lines[1])
}

func TestFormatCueAndLineCounts(t *testing.T) {
	doc := Document{Subtitles: []Subtitle{cue(0, ""), cue(1, ""), cue(2, "")}}

	lines := FormatWebVTT(doc, "")

	var timing, text int
	for _, l := range lines {
		switch {
		case strings.Contains(l, " --> "):
			timing++
		case strings.Contains(l, "cue "):
			text++
		}
	}
	assert.Equal(t, 3, timing)
	assert.Equal(t, 3, text)
	// header (3) + three cue blocks of timing, text, separator
	assert.Len(t, lines, 3+3*3)

	// Cues keep document order.
	first := strings.Join(lines, "\n")
	assert.Less(t, strings.Index(first, "cue 0"), strings.Index(first, "cue 1"))
	assert.Less(t, strings.Index(first, "cue 1"), strings.Index(first, "cue 2"))
}

func TestStyleEmissionRule(t *testing.T) {
	doc := Document{
		Styles: []Style{
			{ID: "both", Color: "#ffffffff", BackgroundColor: "#000000ff"},
			{ID: "fgOnly", Color: "#ffffffff"},
			{ID: "bgOnly", BackgroundColor: "#000000ff"},
			{ID: "neither", TextAlign: "center"},
		},
	}

	out := strings.Join(FormatWebVTT(doc, ""), "\n")

	assert.Equal(t, 1, strings.Count(out, "STYLE"))
	assert.Contains(t, out, "::cue(.both) {")
	assert.Contains(t, out, "  color: #ffffffff;")
	assert.Contains(t, out, "  background-color: #000000ff;")
	assert.NotContains(t, out, "::cue(.fgOnly)")
	assert.NotContains(t, out, "::cue(.bgOnly)")
	assert.NotContains(t, out, "::cue(.neither)")
}

func TestPositionSnapping(t *testing.T) {
	cases := []struct {
		name   string
		origin string // extent fixed at "10% 10%", so mid = originX + 5
		want   string
	}{
		{"exact centre", "45% 20%", "position:50%"},
		{"low edge snapped", "41% 20%", "position:50%"},
		{"high edge snapped", "49.9% 20%", "position:50%"},
		{"below tolerance", "39.9% 20%", "position:45%"},
		{"above tolerance", "50.1% 20%", "position:55%"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := Document{
				Regions: []Region{{
					ID:           "R1",
					Origin:       tc.origin,
					Extent:       "10% 10%",
					DisplayAlign: "after",
				}},
				Subtitles: []Subtitle{cue(0, "R1")},
			}
			out := strings.Join(FormatWebVTT(doc, ""), "\n")
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestPositionLineFormat(t *testing.T) {
	doc := Document{
		Regions: []Region{{
			ID:           "R1",
			Origin:       "12% 79%",
			Extent:       "76% 14%",
			DisplayAlign: "after",
		}},
		Subtitles: []Subtitle{cue(0, "R1")},
	}

	out := strings.Join(FormatWebVTT(doc, ""), "\n")
	assert.Contains(t, out, "00:00:00.000 --> 00:00:03.000 line:79% align:center position:50% size:76%")
}

func TestZeroValuesOmitPercentSuffix(t *testing.T) {
	doc := Document{
		Regions: []Region{{
			ID:           "R1",
			Origin:       "0% 0%",
			Extent:       "10% 10%",
			DisplayAlign: "before",
		}},
		Subtitles: []Subtitle{cue(0, "R1")},
	}

	out := strings.Join(FormatWebVTT(doc, ""), "\n")
	assert.Contains(t, out, "line:0 align:center position:5% size:10%")
}

func TestRegionWithoutGeometryProducesNoSuffix(t *testing.T) {
	doc := Document{
		Regions: []Region{
			{ID: "noAlign", Origin: "10% 10%", Extent: "10% 10%"},
			{ID: "badPair", Origin: "10%", Extent: "10% 10%", DisplayAlign: "after"},
		},
		Subtitles: []Subtitle{cue(0, "noAlign"), cue(1, "badPair"), cue(2, "unknown")},
	}

	lines := FormatWebVTT(doc, "")
	for _, l := range lines {
		if strings.Contains(l, " --> ") {
			assert.NotContains(t, l, "position:")
			assert.True(t, strings.HasSuffix(l, ".000"), "timing line %q should end at the timestamp", l)
		}
	}
}

func TestUnstyledSpanNotWrapped(t *testing.T) {
	doc := Document{Subtitles: []Subtitle{{
		Begin: "00:00:01.000",
		End:   "00:00:02.000",
		Spans: []TextSpan{
			{Text: "plain run"},
			{Text: "styled run", StyleID: "S3"},
		},
	}}}

	out := strings.Join(FormatWebVTT(doc, ""), "\n")
	assert.Contains(t, out, "plain run <c.S3>styled run</c>")
}
