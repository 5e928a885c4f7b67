package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PizzaHomicide/hlsplay/internal/log"
	"github.com/grafov/m3u8"
)

// Error details reported by the HLS engine
const (
	DetailManifestLoad    = "manifestLoadError"
	DetailManifestParsing = "manifestParsingError"
	DetailLevelLoad       = "levelLoadError"
	DetailLevelEmpty      = "levelEmptyError"
	DetailMediaAttach     = "mediaAttachError"
	DetailMediaDecode     = "bufferAppendError"
)

// playlistError carries the engine error category and detail for a failed playlist load
type playlistError struct {
	category ErrorCategory
	detail   string
	err      error
}

func (e *playlistError) Error() string {
	if e.err == nil {
		return e.detail
	}
	return fmt.Sprintf("%s: %v", e.detail, e.err)
}

func (e *playlistError) Unwrap() error {
	return e.err
}

// toEngineError converts any loading error into a fatal engine error
func toEngineError(err error) EngineError {
	var plErr *playlistError
	if errors.As(err, &plErr) {
		return EngineError{Fatal: true, Category: plErr.category, Detail: plErr.detail}
	}
	return EngineError{Fatal: true, Category: ErrorOther, Detail: err.Error()}
}

// segment is the part of a media segment the engine cares about
type segment struct {
	seq             uint64
	duration        float64
	programDateTime time.Time
}

// mediaPlaylist is a decoded media playlist reduced to what the engine uses
type mediaPlaylist struct {
	details  LevelDetails
	segments []segment
	closed   bool
}

// playlistLoader fetches and decodes playlists
type playlistLoader struct {
	client *http.Client
}

// fetch downloads and decodes the playlist at uri.  loadDetail is reported for transport failures.
func (l *playlistLoader) fetch(ctx context.Context, uri string, loadDetail string) (m3u8.Playlist, m3u8.ListType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, 0, &playlistError{category: ErrorNetwork, detail: loadDetail, err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, 0, &playlistError{category: ErrorNetwork, detail: loadDetail, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, 0, &playlistError{
			category: ErrorNetwork,
			detail:   loadDetail,
			err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, 0, &playlistError{category: ErrorOther, detail: DetailManifestParsing, err: err}
	}

	log.Trace("Fetched playlist", "uri", uri, "type", listType)
	return playlist, listType, nil
}

// fetchMedia downloads a playlist that must be a media playlist
func (l *playlistLoader) fetchMedia(ctx context.Context, uri string) (*mediaPlaylist, error) {
	playlist, listType, err := l.fetch(ctx, uri, DetailLevelLoad)
	if err != nil {
		return nil, err
	}
	media, ok := playlist.(*m3u8.MediaPlaylist)
	if listType != m3u8.MEDIA || !ok {
		return nil, &playlistError{category: ErrorOther, detail: DetailManifestParsing, err: errors.New("expected a media playlist")}
	}
	return reduceMediaPlaylist(media)
}

// reduceMediaPlaylist extracts segments and details.  The decoder's segment slice is sized to its capacity, so
// trailing nil entries are skipped.
func reduceMediaPlaylist(p *m3u8.MediaPlaylist) (*mediaPlaylist, error) {
	var segments []segment
	for _, s := range p.Segments {
		if s == nil {
			continue
		}
		segments = append(segments, segment{
			seq:             p.SeqNo + uint64(len(segments)),
			duration:        s.Duration,
			programDateTime: s.ProgramDateTime,
		})
	}
	if len(segments) == 0 {
		return nil, &playlistError{category: ErrorOther, detail: DetailLevelEmpty}
	}

	result := &mediaPlaylist{
		details: LevelDetails{
			TargetDuration: time.Duration(p.TargetDuration * float64(time.Second)),
		},
		segments: segments,
		closed:   p.Closed,
	}
	if p.Closed {
		last := segments[len(segments)-1].seq
		result.details.EndSequence = &last
	}
	return result, nil
}

// levelsFromMaster builds one level per variant stream, skipping I-frame only variants
func levelsFromMaster(master *m3u8.MasterPlaylist, base *url.URL) ([]Level, error) {
	var levels []Level
	for _, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}
		uri, err := resolveReference(base, v.URI)
		if err != nil {
			return nil, &playlistError{category: ErrorOther, detail: DetailManifestParsing, err: err}
		}
		levels = append(levels, Level{
			Height:  parseResolutionHeight(v.Resolution),
			Bitrate: int(v.Bandwidth),
			URI:     uri,
		})
	}
	if len(levels) == 0 {
		return nil, &playlistError{category: ErrorOther, detail: DetailLevelEmpty, err: errors.New("master playlist has no variants")}
	}
	return levels, nil
}
