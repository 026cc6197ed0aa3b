// Package captions converts TTML caption documents into WebVTT. Parsing
// produces a format-neutral Document; formatting turns that into WebVTT cue
// blocks with screen positions derived from TTML region geometry.
package captions

// Style holds the subset of TTML style attributes the formatter cares
// about. All fields except ID are optional and kept as raw attribute text.
type Style struct {
	ID              string
	Color           string
	BackgroundColor string
	TextAlign       string
	FontSize        string
	LineHeight      string
	FontFamily      string
	LinePadding     string
	FillLineGap     string
}

// Region holds TTML region geometry. Extent and Origin are raw
// space-separated percentage pairs, e.g. "74% 12%".
type Region struct {
	ID           string
	DisplayAlign string
	Overflow     string
	Extent       string
	Origin       string
}

// TextSpan is one styled run of caption text.
type TextSpan struct {
	Text    string
	StyleID string
}

// Subtitle is a single timed cue. Begin and End are opaque timestamp
// strings carried through from the TTML unmodified. RegionID and StyleIDs
// are looked up at formatting time; unmatched references are ignored.
type Subtitle struct {
	ID       string
	RegionID string
	Begin    string
	End      string
	Spans    []TextSpan
	StyleIDs []string
}

// Document is the parsed intermediate form of a caption file.
type Document struct {
	Styles    []Style
	Regions   []Region
	Subtitles []Subtitle
}
