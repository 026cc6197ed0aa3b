package captions

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// ErrNoTTML is returned when a caption payload contains no XML document.
var ErrNoTTML = errors.New("no ttml document in payload")

var xmlDeclaration = []byte("<?xml")

// ExtractTTML locates the TTML body inside a raw caption segment. DASH
// caption segments carry a binary container prefix before the XML
// declaration; everything before the marker is discarded.
func ExtractTTML(raw []byte) ([]byte, error) {
	idx := bytes.Index(raw, xmlDeclaration)
	if idx < 0 {
		return nil, ErrNoTTML
	}
	return raw[idx:], nil
}

// parseState tracks where the parser is relative to a caption cue.
type parseState int

const (
	// stateOutside: not inside a <p> element.
	stateOutside parseState = iota
	// stateCollecting: inside a <p> or <span>, character data is kept.
	stateCollecting
	// statePaused: still inside a <p> but after a closed <span>, character
	// data is discarded.
	statePaused
)

type ttmlParser struct {
	doc Document

	inStyling bool
	inLayout  bool

	state     parseState
	divStyles []string

	cue       Subtitle
	spanStyle string
	text      strings.Builder
}

// ParseTTML reads a TTML document and builds the intermediate caption
// Document. Parsing is best-effort: unrecognized elements are skipped and a
// malformed tail yields whatever cues were complete before it.
func ParseTTML(r io.Reader) Document {
	p := &ttmlParser{}
	dec := xml.NewDecoder(r)
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF or a malformed tail; keep what parsed cleanly.
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.startElement(t)
		case xml.EndElement:
			p.endElement(t)
		case xml.CharData:
			p.characters(string(t))
		}
	}

	return p.doc
}

func (p *ttmlParser) startElement(el xml.StartElement) {
	switch el.Name.Local {
	case "styling":
		p.inStyling = true

	case "layout":
		p.inLayout = true

	case "style":
		id, ok := attr(el, "id")
		if !ok {
			return
		}
		p.doc.Styles = append(p.doc.Styles, Style{
			ID:              id,
			Color:           attrOr(el, "color"),
			BackgroundColor: attrOr(el, "backgroundColor"),
			TextAlign:       attrOr(el, "textAlign"),
			FontSize:        attrOr(el, "fontSize"),
			LineHeight:      attrOr(el, "lineHeight"),
			FontFamily:      attrOr(el, "fontFamily"),
			LinePadding:     attrOr(el, "linePadding"),
			FillLineGap:     attrOr(el, "fillLineGap"),
		})

	case "region":
		id, ok := attr(el, "id")
		if !ok {
			return
		}
		p.doc.Regions = append(p.doc.Regions, Region{
			ID:           id,
			DisplayAlign: attrOr(el, "displayAlign"),
			Overflow:     attrOr(el, "overflow"),
			Extent:       attrOr(el, "extent"),
			Origin:       attrOr(el, "origin"),
		})

	case "p":
		p.cue = Subtitle{
			ID:       attrOr(el, "id"),
			RegionID: attrOr(el, "region"),
			Begin:    attrOr(el, "begin"),
			End:      attrOr(el, "end"),
		}
		if style, ok := attr(el, "style"); ok {
			p.cue.StyleIDs = append(p.cue.StyleIDs, style)
		}
		p.spanStyle = ""
		p.text.Reset()
		p.state = stateCollecting

	case "span":
		if style, ok := attr(el, "style"); ok {
			switch {
			case p.spanStyle == "":
				p.spanStyle = style
			case style != p.spanStyle:
				// Style change closes the current run and opens a new one.
				p.flushSpan()
				p.spanStyle = style
			}
		}
		p.state = stateCollecting

	case "div":
		if style, ok := attr(el, "style"); ok {
			p.divStyles = strings.Fields(style)
		}
	}
}

func (p *ttmlParser) endElement(el xml.EndElement) {
	switch el.Name.Local {
	case "styling":
		p.inStyling = false

	case "layout":
		p.inLayout = false

	case "p":
		p.flushSpan()
		p.cue.StyleIDs = append(p.cue.StyleIDs, p.divStyles...)
		p.doc.Subtitles = append(p.doc.Subtitles, p.cue)
		p.cue = Subtitle{}
		p.spanStyle = ""
		p.state = stateOutside

	case "span":
		p.state = statePaused

	case "br":
		p.text.WriteString("\n")

	case "div":
		p.divStyles = nil
	}
}

func (p *ttmlParser) characters(s string) {
	if p.state != stateCollecting {
		return
	}
	trimmed := strings.TrimSpace(s)
	if trimmed != "" {
		p.text.WriteString(trimmed)
	}
}

// flushSpan closes the text run in progress as a TextSpan on the current cue.
func (p *ttmlParser) flushSpan() {
	p.cue.Spans = append(p.cue.Spans, TextSpan{
		Text:    p.text.String(),
		StyleID: p.spanStyle,
	})
	p.text.Reset()
}

// attr returns an attribute value by local name, ignoring its namespace
// prefix (xml:id, tts:color and ebutts:linePadding all resolve this way).
func attr(el xml.StartElement, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func attrOr(el xml.StartElement, local string) string {
	v, _ := attr(el, local)
	return v
}
