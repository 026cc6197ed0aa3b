package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"yeahplayer/models"
	"yeahplayer/services/captions"
	"yeahplayer/utils"
)

// Fetcher fetches an origin resource, returning the body and the
// origin-reported content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

const fallbackContentType = "application/octet-stream"

// CaptionProxy is the local HTTP server that answers the player's subtitle
// segment requests: it fetches the real TTML caption resource, converts it
// to WebVTT and returns the converted bytes.
//
// The media reference uses a readers-writer discipline: SetMedia is the one
// exclusive writer, conversions only take read locks, so concurrent segment
// requests never block each other.
type CaptionProxy struct {
	fetcher Fetcher

	mu    sync.RWMutex
	media *models.MediaDescriptor
	cache afero.Fs

	server       *http.Server
	hostWithPort string
}

// NewCaptionProxy builds a proxy over the given origin fetcher. Converted
// plain-caption documents are cached in memory; the player re-requests the
// whole document on every seek.
func NewCaptionProxy(fetcher Fetcher) *CaptionProxy {
	return &CaptionProxy{
		fetcher: fetcher,
		cache:   afero.NewMemMapFs(),
	}
}

// SetMedia swaps the session's media descriptor and drops conversions
// cached for the previous one.
func (p *CaptionProxy) SetMedia(media models.MediaDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.media = &media
	p.cache = afero.NewMemMapFs()
	log.Printf("[caption-proxy] media updated: captions=%s", media.Captions.Kind)
}

// HostWithPort returns the proxy's listen address, e.g. "127.0.0.1:49202".
// Only valid after Start.
func (p *CaptionProxy) HostWithPort() string {
	return p.hostWithPort
}

// Routes registers the proxy's handlers on a router.
func (p *CaptionProxy) Routes(r *mux.Router) {
	r.HandleFunc("/subtitles/plain.webvtt", p.ServePlainCaptions).Methods(http.MethodGet)
	r.HandleFunc("/subtitles/dash/{segment}.webvtt", p.ServeDASHCaptions).Methods(http.MethodGet)
}

// Start binds the proxy to an OS-assigned ephemeral port on bindHost and
// serves in the background. Listening directly on port 0 and reading the
// assigned address back keeps the port held from the moment it is chosen,
// so no other process can claim it between reservation and serving.
func (p *CaptionProxy) Start(bindHost string) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(bindHost, "0"))
	if err != nil {
		return fmt.Errorf("caption proxy listen: %w", err)
	}
	p.hostWithPort = ln.Addr().String()

	router := utils.NewRouter()
	p.Routes(router)
	p.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := p.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[caption-proxy] server stopped: %v", err)
		}
	}()

	log.Printf("[caption-proxy] listening on %s", p.hostWithPort)
	return nil
}

// Shutdown stops the server, waiting for in-flight conversions.
func (p *CaptionProxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

// ServePlainCaptions converts the session's plain TTML caption document to
// WebVTT and serves the whole document.
func (p *CaptionProxy) ServePlainCaptions(w http.ResponseWriter, r *http.Request) {
	media, ok := p.mediaSnapshot()
	if !ok || media.Captions.Kind != models.CaptionPlain {
		log.Printf("[caption-proxy] plain captions requested without a plain caption source")
		http.Error(w, "no plain caption source", http.StatusInternalServerError)
		return
	}
	href := media.Captions.HRef

	if body, contentType, ok := p.cachedWebVTT(href); ok {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
		return
	}

	raw, contentType, err := p.fetcher.Fetch(r.Context(), href)
	if err != nil {
		log.Printf("[caption-proxy] plain caption fetch failed: %v", err)
		http.Error(w, "caption fetch failed", http.StatusInternalServerError)
		return
	}

	doc := captions.ParseTTML(bytes.NewReader(raw))
	body := []byte(strings.Join(captions.FormatWebVTT(doc, captions.DefaultTimestampOffset), "\n"))
	if contentType == "" {
		contentType = fallbackContentType
	}

	p.storeWebVTT(href, body, contentType)

	w.Header().Set("Content-Type", contentType)
	w.Write(body)
	log.Printf("[caption-proxy] converted plain captions (%d cues)", len(doc.Subtitles))
}

// ServeDASHCaptions converts one DASH caption segment to WebVTT. The raw
// segment may carry a binary container prefix before the TTML body; the
// prefix is discarded.
func (p *CaptionProxy) ServeDASHCaptions(w http.ResponseWriter, r *http.Request) {
	segment := mux.Vars(r)["segment"]

	media, ok := p.mediaSnapshot()
	if !ok || !media.Captions.IsDash() {
		log.Printf("[caption-proxy] dash captions requested without a dash caption source")
		http.Error(w, "no dash caption source", http.StatusInternalServerError)
		return
	}

	segURL, err := media.Captions.SegmentURL(segment)
	if err != nil {
		log.Printf("[caption-proxy] segment url formation failed: %v", err)
		http.Error(w, "caption url formation failed", http.StatusInternalServerError)
		return
	}

	raw, contentType, err := p.fetcher.Fetch(r.Context(), segURL)
	if err != nil {
		log.Printf("[caption-proxy] segment fetch failed: %v", err)
		http.Error(w, "caption fetch failed", http.StatusInternalServerError)
		return
	}

	xmlBody, err := captions.ExtractTTML(raw)
	if err != nil {
		log.Printf("[caption-proxy] segment %s: %v", segment, err)
		http.Error(w, "no ttml document in segment", http.StatusInternalServerError)
		return
	}

	doc := captions.ParseTTML(bytes.NewReader(xmlBody))
	body := strings.Join(captions.FormatWebVTT(doc, captions.DashTimestampOffset), "\n")
	if contentType == "" {
		contentType = fallbackContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Write([]byte(body))
	log.Printf("[caption-proxy] converted dash segment %s (%d cues)", segment, len(doc.Subtitles))
}

func (p *CaptionProxy) mediaSnapshot() (models.MediaDescriptor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.media == nil {
		return models.MediaDescriptor{}, false
	}
	return *p.media, true
}

func cacheKey(href string) (string, string) {
	sum := sha256.Sum256([]byte(href))
	name := hex.EncodeToString(sum[:16])
	return name + ".webvtt", name + ".type"
}

func (p *CaptionProxy) cachedWebVTT(href string) ([]byte, string, bool) {
	p.mu.RLock()
	fs := p.cache
	p.mu.RUnlock()

	bodyKey, typeKey := cacheKey(href)
	body, err := afero.ReadFile(fs, bodyKey)
	if err != nil {
		return nil, "", false
	}
	contentType, err := afero.ReadFile(fs, typeKey)
	if err != nil {
		return nil, "", false
	}
	return body, string(contentType), true
}

func (p *CaptionProxy) storeWebVTT(href string, body []byte, contentType string) {
	p.mu.RLock()
	fs := p.cache
	p.mu.RUnlock()

	bodyKey, typeKey := cacheKey(href)
	if err := afero.WriteFile(fs, bodyKey, body, 0o644); err != nil {
		log.Printf("[caption-proxy] cache write failed: %v", err)
		return
	}
	if err := afero.WriteFile(fs, typeKey, []byte(contentType), 0o644); err != nil {
		log.Printf("[caption-proxy] cache write failed: %v", err)
	}
}
