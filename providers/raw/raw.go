package raw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/generic"
	"github.com/alanbriolat/video-fetcher/stream"
	"github.com/alanbriolat/video-fetcher/util"
)

// A raw URL points straight at a single video file, so it has exactly one progressive variant.
const variantID stream.ID = 0

type Config struct {
	Protocols  generic.Set[string]
	Extensions generic.Set[string]
	Client     *http.Client
}

func NewConfig() Config {
	return Config{
		Protocols: generic.NewSet(
			"http",
			"https",
		),
		Extensions: generic.NewSet(
			"flv",
			"m4v",
			"mkv",
			"mp4",
			"webm",
		),
		Client: http.DefaultClient,
	}
}

func (c *Config) Match(s string) (video_fetcher.Source, error) {
	// Expect string to be a URL
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	// Check that scheme/protocol is valid
	if !c.Protocols.Contains(parsedURL.Scheme) {
		return nil, fmt.Errorf("unknown URL scheme %v", parsedURL.Scheme)
	}
	// Attempt to extract filename and extension
	filename, err := util.FilenameFromURL(parsedURL)
	if err != nil {
		return nil, err
	}
	extension := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if extension == "" {
		return nil, fmt.Errorf("no file extension found")
	}
	if !c.Extensions.Contains(extension) {
		return nil, fmt.Errorf("unknown file extension %v", extension)
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	res := source{
		url:       s,
		title:     strings.TrimSuffix(filename, path.Ext(filename)),
		container: extension,
		client:    client,
	}
	return &res, nil
}

func (c Config) Provider() video_fetcher.Provider {
	return video_fetcher.Provider{
		Name:  "raw",
		Match: c.Match,
	}
}

type source struct {
	url       string
	title     string
	container string
	client    *http.Client
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

// Fetch checks the file is reachable with a HEAD request and describes it as a single progressive variant.
func (s *source) Fetch(ctx context.Context) (*stream.Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	variant := stream.Variant{
		ID:             variantID,
		Container:      s.container,
		AverageBitrate: generic.None[int](),
		Size:           generic.None[int64](),
		Label:          "direct " + s.container,
	}
	if resp.ContentLength > 0 {
		variant.Size = generic.Some(resp.ContentLength)
	}
	return &stream.Video{
		ID:       s.url,
		Title:    s.title,
		Variants: []stream.Variant{variant},
		Opener:   s,
	}, nil
}

func (s *source) Open(ctx context.Context, variant stream.Variant) (io.ReadCloser, int64, error) {
	if variant.ID != variantID {
		return nil, 0, fmt.Errorf("no variant %d", variant.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

func init() {
	video_fetcher.DefaultProviderRegistry.MustAdd(
		NewConfig().Provider().WithPriority(video_fetcher.PriorityLowest),
	)
}
