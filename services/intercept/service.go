// Package intercept owns a playback session's resource-load handling. Every
// request the player issues under the virtual scheme is classified and then
// answered with a redirect to the real resource, locally synthesized bytes,
// or a failure scoped to that one request.
package intercept

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"

	"yeahplayer/models"
	"yeahplayer/services/playlist"
	"yeahplayer/utils"
)

var (
	// ErrMediaNotResolved means a request arrived before the session's media
	// descriptor was set.
	ErrMediaNotResolved = errors.New("media descriptor not resolved")

	// ErrNoCachedPlaylist means a DASH subtitle manifest was requested
	// before any main playlist relay cached one. That ordering is driven by
	// the player, which always fetches the video media manifest first, so
	// hitting this is a sequencing bug.
	ErrNoCachedPlaylist = errors.New("no main playlist cached")
)

const playlistContentType = "application/vnd.apple.mpegurl"

// fallbackDurationSeconds stands in for the programme length on the plain
// caption manifest when the player never reported a VOD duration.
const fallbackDurationSeconds = 3600

// Fetcher fetches an origin resource, returning the body and the
// origin-reported content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Request is one player-issued load request for a virtual-scheme URL.
// Range fields describe the byte range the player asked for, when it did.
type Request struct {
	URL         string
	RangeOffset int64
	RangeLength int64
	HasRange    bool
}

// isInitialProbe recognises the cheap 2-byte pre-flight read players issue
// against a manifest before its metadata is known.
func (r Request) isInitialProbe() bool {
	return r.HasRange && r.RangeOffset == 0 && r.RangeLength == 2
}

// Outcome is the interceptor's answer for one request. Exactly one of
// RedirectURL, Body or Err is meaningful.
type Outcome struct {
	RedirectURL string
	Body        []byte
	ContentType string
	Err         error
}

// Redirect answers the request by pointing the player at the real URL.
func Redirect(to string) Outcome { return Outcome{RedirectURL: to} }

// Respond answers the request with locally produced bytes.
func Respond(body []byte, contentType string) Outcome {
	return Outcome{Body: body, ContentType: contentType}
}

// Fail reports a load failure for this request only; the playback session
// is unaffected.
func Fail(err error) Outcome { return Outcome{Err: err} }

// Strategy is the classification of a request.
type Strategy int

const (
	// StrategyRedirect passes the request through to the real URL.
	StrategyRedirect Strategy = iota
	// StrategyInjectMaster fetches the master manifest and injects the
	// subtitle track before answering.
	StrategyInjectMaster
	// StrategyRelayMainPlaylist forwards a media manifest unmodified while
	// caching it for later DASH subtitle-manifest synthesis.
	StrategyRelayMainPlaylist
	// StrategyServePlainPlaylist synthesizes the static VOD subtitle
	// manifest.
	StrategyServePlainPlaylist
	// StrategyServeDASHPlaylist synthesizes the segment-aligned DASH
	// subtitle manifest.
	StrategyServeDASHPlaylist
)

func (s Strategy) String() string {
	switch s {
	case StrategyInjectMaster:
		return "injectMaster"
	case StrategyRelayMainPlaylist:
		return "relayMainPlaylist"
	case StrategyServePlainPlaylist:
		return "servePlainPlaylist"
	case StrategyServeDASHPlaylist:
		return "serveDASHPlaylist"
	default:
		return "redirect"
	}
}

// Classify picks the handling strategy for a request. It is pure: realURL is
// the request target with the virtual prefix already stripped, and media is
// the session's resolved descriptor. First match wins, top to bottom.
func Classify(realURL string, req Request, media models.MediaDescriptor) Strategy {
	isMaster := realURL == media.VideoURL
	isSubs := strings.Contains(realURL, playlist.SubtitlePlaylistPath)
	isMain := hasPlaylistSuffix(realURL) && !isMaster && !isSubs

	switch {
	case isMaster && req.isInitialProbe():
		// Injected text would corrupt the probe's byte-range assumptions,
		// so the probe always passes through, captions or not.
		return StrategyRedirect
	case isMaster && media.Captions.IsCaptioned():
		return StrategyInjectMaster
	case isSubs && media.Captions.Kind == models.CaptionPlain:
		return StrategyServePlainPlaylist
	case isSubs && media.Captions.IsDash():
		return StrategyServeDASHPlaylist
	case isMain && media.Captions.IsDash():
		return StrategyRelayMainPlaylist
	default:
		return StrategyRedirect
	}
}

func hasPlaylistSuffix(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Path, ".m3u8")
}

// Interceptor holds one playback session's intercept state. The media
// descriptor is written once and read-only after that; the playlist cache
// and DASH watermark are guarded by mu and only this type writes them.
type Interceptor struct {
	fetcher   Fetcher
	proxyHost string

	inflight conc.WaitGroup

	mu                 sync.RWMutex
	media              *models.MediaDescriptor
	vodDurationSeconds int

	flight           singleflight.Group
	lastMainPlaylist []byte

	latestDASHSegment  string
	latestDASHPlaylist string
}

// NewInterceptor builds a session interceptor. proxyHost is the caption
// proxy's host:port, used when synthesizing subtitle manifests.
func NewInterceptor(fetcher Fetcher, proxyHost string) *Interceptor {
	return &Interceptor{fetcher: fetcher, proxyHost: proxyHost}
}

// SetMedia records the session's resolved media descriptor. The first call
// wins; the descriptor is immutable for the session's lifetime.
func (i *Interceptor) SetMedia(media models.MediaDescriptor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.media != nil {
		log.Printf("[intercept] ignoring repeated media descriptor for %s", media.VideoURL)
		return
	}
	i.media = &media
	log.Printf("[intercept] media resolved: video=%s captions=%s", media.VideoURL, media.Captions.Kind)
}

// SetVODDuration records the programme length once the player learns it.
// The plain subtitle manifest uses it as segment duration.
func (i *Interceptor) SetVODDuration(seconds int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vodDurationSeconds = seconds
}

// Media returns the session descriptor, if resolved.
func (i *Interceptor) Media() (models.MediaDescriptor, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.media == nil {
		return models.MediaDescriptor{}, false
	}
	return *i.media, true
}

// Intercept classifies and resolves one player request. It returns
// immediately; the single Outcome is delivered on the returned channel once
// resolution (including any origin fetch) completes.
func (i *Interceptor) Intercept(ctx context.Context, req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	i.inflight.Go(func() {
		ch <- i.resolve(ctx, req)
	})
	return ch
}

// Close waits for in-flight request resolutions to finish.
func (i *Interceptor) Close() {
	i.inflight.Wait()
}

func (i *Interceptor) resolve(ctx context.Context, req Request) Outcome {
	requestID := shortID()

	media, ok := i.Media()
	if !ok {
		return Fail(ErrMediaNotResolved)
	}

	realURL, err := utils.RealURL(req.URL, models.SchemePrefix)
	if err != nil {
		return Fail(err)
	}

	strategy := Classify(realURL, req, media)
	log.Printf("[intercept] %s: %s -> %s", requestID, strategy, realURL)

	switch strategy {
	case StrategyInjectMaster:
		return i.injectMaster(ctx, realURL, requestID)
	case StrategyRelayMainPlaylist:
		return i.relayMainPlaylist(ctx, realURL, requestID)
	case StrategyServePlainPlaylist:
		return i.servePlainPlaylist(requestID)
	case StrategyServeDASHPlaylist:
		return i.serveDASHPlaylist(requestID)
	default:
		return Redirect(realURL)
	}
}

// injectMaster fetches the real master manifest and answers with the
// subtitle track injected.
func (i *Interceptor) injectMaster(ctx context.Context, realURL, requestID string) Outcome {
	body, _, err := i.fetcher.Fetch(ctx, realURL)
	if err != nil {
		log.Printf("[intercept] %s: master fetch failed: %v", requestID, err)
		return Fail(err)
	}

	injected := playlist.AddSubtitles(string(body))
	log.Printf("[intercept] %s: responded with modified master playlist", requestID)
	return Respond([]byte(injected), playlistContentType)
}

// relayMainPlaylist forwards a media manifest unmodified and caches the
// bytes for DASH subtitle-manifest synthesis. Concurrent relays for the
// session share one origin fetch.
func (i *Interceptor) relayMainPlaylist(ctx context.Context, realURL, requestID string) Outcome {
	v, err, shared := i.flight.Do("main-playlist", func() (any, error) {
		body, _, err := i.fetcher.Fetch(ctx, realURL)
		return body, err
	})
	if err != nil {
		log.Printf("[intercept] %s: main playlist fetch failed: %v", requestID, err)
		return Fail(err)
	}
	body := v.([]byte)

	i.mu.Lock()
	i.lastMainPlaylist = body
	i.mu.Unlock()

	log.Printf("[intercept] %s: relayed main playlist up to %q (shared=%v)",
		requestID, lastSegmentLine(string(body)), shared)
	return Respond(body, playlistContentType)
}

func (i *Interceptor) servePlainPlaylist(requestID string) Outcome {
	i.mu.RLock()
	lastTime := i.vodDurationSeconds
	i.mu.RUnlock()
	if lastTime <= 0 {
		lastTime = fallbackDurationSeconds
	}

	body := playlist.GeneratePlainPlaylist(lastTime, i.proxyHost)
	log.Printf("[intercept] %s: responded with plain captions playlist, last time %ds", requestID, lastTime)
	return Respond([]byte(body), playlistContentType)
}

// serveDASHPlaylist synthesizes the subtitle manifest from the cached main
// playlist, holding the watermark invariant: once a manifest keyed to
// segment N has been served, no manifest keyed below N is ever served.
// A rewound conversion replays the previously served manifest, otherwise
// the player's adaptive engine re-requests every historical segment.
func (i *Interceptor) serveDASHPlaylist(requestID string) Outcome {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.lastMainPlaylist == nil {
		log.Printf("[intercept] %s: dash playlist requested before any main playlist", requestID)
		return Fail(ErrNoCachedPlaylist)
	}

	generated, lastSegment := playlist.GenerateDASHPlaylist(string(i.lastMainPlaylist), i.proxyHost)

	if lastSegment >= i.latestDASHSegment {
		i.latestDASHSegment = lastSegment
		i.latestDASHPlaylist = generated
		log.Printf("[intercept] %s: responded with dash captions playlist up to %s", requestID, lastSegment)
		return Respond([]byte(generated), playlistContentType)
	}

	log.Printf("[intercept] %s: replaying stored dash playlist up to %s instead of rewound %s",
		requestID, i.latestDASHSegment, lastSegment)
	return Respond([]byte(i.latestDASHPlaylist), playlistContentType)
}

// lastSegmentLine pulls the final segment line from a manifest for logging.
func lastSegmentLine(manifest string) string {
	lines := strings.Split(manifest, "\n")
	for n := len(lines) - 1; n >= 0; n-- {
		if line := strings.TrimSpace(lines[n]); line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

func shortID() string {
	return uuid.NewString()[:8]
}
