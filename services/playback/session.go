// Package playback assembles one playback session: a caption proxy bound to
// a loopback port, a request interceptor pointed at it, and one origin
// client shared by both. The session is the only surface the embedding
// player talks to.
package playback

import (
	"context"
	"fmt"
	"log"

	"yeahplayer/config"
	"yeahplayer/handlers"
	"yeahplayer/models"
	"yeahplayer/services/intercept"
	"yeahplayer/services/origin"
	"yeahplayer/utils"
)

// Session owns the per-playback pipeline. Construct with NewSession, feed it
// the resolved media with SetMedia, hand VirtualVideoURL to the player and
// route its resource requests through Intercept.
type Session struct {
	proxy    *intercept.Interceptor
	captions *handlers.CaptionProxy
}

// NewSession starts the caption proxy and wires the interceptor to it. The
// proxy's port is OS-assigned, so sessions never collide on a port.
func NewSession(cfg config.Config) (*Session, error) {
	client := origin.NewClient(cfg.FetchTimeout)

	captions := handlers.NewCaptionProxy(client)
	if err := captions.Start(cfg.ProxyBindHost); err != nil {
		return nil, fmt.Errorf("start caption proxy: %w", err)
	}

	return &Session{
		proxy:    intercept.NewInterceptor(client, captions.HostWithPort()),
		captions: captions,
	}, nil
}

// SetMedia records the resolved media for both halves of the pipeline.
func (s *Session) SetMedia(media models.MediaDescriptor) {
	s.captions.SetMedia(media)
	s.proxy.SetMedia(media)
}

// SetVODDuration forwards the programme length once the player learns it.
func (s *Session) SetVODDuration(seconds int) {
	s.proxy.SetVODDuration(seconds)
}

// VirtualVideoURL is the scheme-prefixed manifest URL to hand the player.
func (s *Session) VirtualVideoURL() (string, error) {
	media, ok := s.proxy.Media()
	if !ok {
		return "", intercept.ErrMediaNotResolved
	}
	return utils.VirtualURL(media.VideoURL, models.SchemePrefix), nil
}

// Intercept resolves one player resource request. See intercept.Interceptor.
func (s *Session) Intercept(ctx context.Context, req intercept.Request) <-chan intercept.Outcome {
	return s.proxy.Intercept(ctx, req)
}

// Close drains in-flight request resolutions and stops the caption proxy.
func (s *Session) Close(ctx context.Context) error {
	s.proxy.Close()
	if err := s.captions.Shutdown(ctx); err != nil {
		log.Printf("[playback] caption proxy shutdown: %v", err)
		return err
	}
	return nil
}
