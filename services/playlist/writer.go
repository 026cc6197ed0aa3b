// Package playlist holds the pure text transformations applied to HLS
// manifests during subtitle injection. Nothing here fetches or caches;
// callers hand in manifest text and get manifest text back.
package playlist

import (
	"fmt"
	"strings"

	"yeahplayer/models"
)

// SubtitlePlaylistPath is the synthesized subtitle-manifest path referenced
// from the injected master manifest. The interceptor recognises requests for
// it and answers them locally.
const SubtitlePlaylistPath = "yeah/subtitles/eng/prog_index.m3u8"

const subtitleMediaLine = `#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID="subs",NAME="English",DEFAULT=YES,AUTOSELECT=YES,FORCED=NO,LANGUAGE="en",CHARACTERISTICS="public.accessibility.transcribes-spoken-dialog, public.accessibility.describes-music-and-sound",URI="` + SubtitlePlaylistPath + `"`

// AddSubtitles rewrites a master manifest so the player sees an
// always-available subtitle track: every variant-stream line gains a
// SUBTITLES group reference, and one media line declaring the group is
// appended. All other lines pass through verbatim, in order.
func AddSubtitles(master string) string {
	lines := strings.Split(master, "\n")

	for i, line := range lines {
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF") {
			lines[i] = line + `,SUBTITLES="subs"`
		}
	}

	lines = append(lines, "", subtitleMediaLine)
	return strings.Join(lines, "\n")
}

// GeneratePlainPlaylist synthesizes the single-segment VOD manifest for
// plain (non-DASH) captions. The one segment spans the whole programme and
// points at the caption proxy's plain conversion route, through the virtual
// scheme so the player routes the request back to the interceptor.
func GeneratePlainPlaylist(lastTimeSeconds int, proxyHost string) string {
	return fmt.Sprintf(`#EXTM3U,
#EXT-X-TARGETDURATION: %d,
#EXT-X-VERSION:3,
#EXT-X-MEDIA-SEQUENCE:0,
#EXT-X-PLAYLIST-TYPE:VOD,
#EXTINF: %d,
%shttp://%s/subtitles/plain.webvtt
#EXT-X-ENDLIST`,
		lastTimeSeconds, lastTimeSeconds, models.SchemePrefix, proxyHost)
}

// GenerateDASHPlaylist rewrites a video media manifest into the matching
// subtitle manifest: every transport-stream segment line becomes the caption
// proxy's per-segment subtitle URL carrying that segment's numeric id. The
// last id seen is returned so the caller can hold the DASH watermark.
func GenerateDASHPlaylist(videoPlaylist, proxyHost string) (string, string) {
	lines := strings.Split(videoPlaylist, "\n")

	var lastNumber string
	for i, line := range lines {
		if !strings.HasSuffix(line, ".ts") {
			continue
		}
		number, _, ok := strings.Cut(line, ".")
		if !ok {
			continue
		}
		lines[i] = fmt.Sprintf("%shttp://%s/subtitles/dash/%s.webvtt", models.SchemePrefix, proxyHost, number)
		lastNumber = number
	}

	return strings.Join(lines, "\n"), lastNumber
}
