package models

import (
	"fmt"
	"net/url"
	"strings"
)

// SchemePrefix is the token prepended to a real URL scheme to form the
// virtual scheme the player is handed. Requests carrying it are routed
// through the resource-load interceptor instead of going to the network
// layer directly.
const SchemePrefix = "yeah"

// SegmentNumberPlaceholder is the token inside a DASH caption href template
// that is substituted with a segment number.
const SegmentNumberPlaceholder = "$Number$"

// CaptionKind identifies how a media item's captions are delivered.
type CaptionKind int

const (
	// CaptionNone means the media item has no caption resource.
	CaptionNone CaptionKind = iota
	// CaptionPlain means captions come as a single TTML document.
	CaptionPlain
	// CaptionDash means captions come as numbered DASH segments, addressed
	// through an href template.
	CaptionDash
)

// CaptionSource describes where a media item's captions live.
type CaptionSource struct {
	Kind CaptionKind

	// HRef is the caption document URL when Kind is CaptionPlain.
	HRef string

	// HRefTemplate is the per-segment URL template when Kind is CaptionDash.
	// It contains SegmentNumberPlaceholder where the segment number goes.
	HRefTemplate string
}

// NoCaptions returns a CaptionSource for media without captions.
func NoCaptions() CaptionSource {
	return CaptionSource{Kind: CaptionNone}
}

// PlainCaptions returns a CaptionSource for a single TTML document.
func PlainCaptions(href string) CaptionSource {
	return CaptionSource{Kind: CaptionPlain, HRef: href}
}

// DashCaptions returns a CaptionSource for DASH-segmented captions.
func DashCaptions(hrefTemplate string) CaptionSource {
	return CaptionSource{Kind: CaptionDash, HRefTemplate: hrefTemplate}
}

// IsCaptioned reports whether any caption resource exists.
func (c CaptionSource) IsCaptioned() bool {
	return c.Kind != CaptionNone
}

// IsDash reports whether captions are DASH-segmented.
func (c CaptionSource) IsDash() bool {
	return c.Kind == CaptionDash
}

// SegmentURL resolves the caption resource URL for a DASH segment number by
// substituting the number into the href template.
func (c CaptionSource) SegmentURL(number string) (string, error) {
	if c.Kind != CaptionDash {
		return "", fmt.Errorf("segment url for %v captions", c.Kind)
	}
	href := strings.ReplaceAll(c.HRefTemplate, SegmentNumberPlaceholder, number)
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse segment url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("segment url %q missing scheme or host", href)
	}
	return u.String(), nil
}

// String makes CaptionKind readable in logs.
func (k CaptionKind) String() string {
	switch k {
	case CaptionPlain:
		return "plain"
	case CaptionDash:
		return "dash"
	default:
		return "none"
	}
}

// MediaDescriptor is the immutable per-playback-session record of the
// resolved media: the origin manifest URL and the caption source. It is
// created once when a playback session starts and never mutated.
type MediaDescriptor struct {
	VideoURL string
	Captions CaptionSource
}
