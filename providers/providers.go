// Package providers registers every built-in provider with video_fetcher.DefaultProviderRegistry.
package providers

import (
	_ "github.com/alanbriolat/video-fetcher/providers/raw"
	_ "github.com/alanbriolat/video-fetcher/providers/youtube"
)
