package video_fetcher

import (
	"context"

	"github.com/alanbriolat/video-fetcher/stream"
)

type Source interface {
	// URL should return the canonical URL for this source. It is assumed that the Provider.Match that created the
	// Source would successfully match this canonical URL.
	URL() string
	// Fetch retrieves the title and the available stream variants. Failures should wrap the underlying cause; the
	// caller turns them into a FetchError.
	Fetch(ctx context.Context) (*stream.Video, error)
}
