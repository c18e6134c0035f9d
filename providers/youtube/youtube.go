package youtube

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/generic"
	"github.com/alanbriolat/video-fetcher/stream"
)

type source struct {
	videoID string
	client  *youtube.Client
}

func (s *source) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Fetch(ctx context.Context) (*stream.Video, error) {
	videoDetails, err := s.client.GetVideoContext(ctx, s.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	return toVideo(videoDetails, &opener{client: s.client, video: videoDetails}), nil
}

func toVideo(v *youtube.Video, o stream.Opener) *stream.Video {
	variants := make([]stream.Variant, 0, len(v.Formats))
	for _, f := range v.Formats {
		variants = append(variants, toVariant(f))
	}
	return &stream.Video{
		ID:       v.ID,
		Title:    v.Title,
		Variants: variants,
		Opener:   o,
	}
}

func toVariant(f youtube.Format) stream.Variant {
	mimeType := strings.TrimSpace(strings.SplitN(f.MimeType, ";", 2)[0])
	kind, container, _ := strings.Cut(mimeType, "/")
	progressive := f.AudioChannels > 0 && f.Width > 0
	variant := stream.Variant{
		ID:             stream.ID(f.ItagNo),
		Container:      container,
		Adaptive:       !progressive,
		AudioOnly:      kind == "audio",
		AverageBitrate: generic.None[int](),
		Size:           generic.None[int64](),
	}
	if f.AverageBitrate > 0 {
		variant.AverageBitrate = generic.Some(f.AverageBitrate)
	} else if variant.AudioOnly && f.Bitrate > 0 {
		variant.AverageBitrate = generic.Some(f.Bitrate)
	}
	if f.ContentLength > 0 {
		variant.Size = generic.Some(f.ContentLength)
	}
	variant.Label = label(f, variant)
	return variant
}

func label(f youtube.Format, v stream.Variant) string {
	quality := f.QualityLabel
	if v.AudioOnly {
		if kbps, ok := v.AverageBitrate.Get(); ok {
			quality = fmt.Sprintf("%dkbps", kbps/1000)
		} else {
			quality = f.AudioQuality
		}
	}
	if quality == "" {
		quality = f.Quality
	}
	return fmt.Sprintf("%s %s/%s", quality, v.Kind(), v.Container)
}

// opener streams formats of one fetched video.
type opener struct {
	client *youtube.Client
	video  *youtube.Video
}

func (o *opener) Open(ctx context.Context, variant stream.Variant) (io.ReadCloser, int64, error) {
	format := o.video.Formats.FindByItag(int(variant.ID))
	if format == nil {
		return nil, 0, fmt.Errorf("no format with itag %d", variant.ID)
	}
	r, size, err := o.client.GetStreamContext(ctx, o.video, format)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stream: %w", err)
	}
	return r, size, nil
}

type Provider struct {
	Client *youtube.Client
}

func (p Provider) Match(s string) (video_fetcher.Source, error) {
	if parsedURL, err := url.Parse(s); err != nil {
		return nil, err
	} else if videoID, err := extractVideoID(parsedURL); err != nil {
		return nil, err
	} else {
		client := p.Client
		if client == nil {
			client = &youtube.Client{}
		}
		return &source{videoID: *videoID, client: client}, nil
	}
}

func New() video_fetcher.Provider {
	return video_fetcher.Provider{Name: "youtube", Match: Provider{}.Match}
}

// Extract video ID from YouTube URL.
//
// Allowed URL formats:
//
//	http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/(v|shorts|embed)/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(url *url.URL) (*string, error) {
	var id string
	switch url.Hostname() {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
		if prefix, rest, found := strings.Cut(strings.TrimPrefix(url.Path, "/"), "/"); found && (prefix == "v" || prefix == "shorts" || prefix == "embed") {
			id = strings.SplitN(rest, "/", 2)[0]
		} else if url.Path == "/watch" || url.Path == "/details" {
			if url.Query().Has("v") {
				id = url.Query().Get("v")
			} else {
				return nil, fmt.Errorf("missing ?v= query parameter")
			}
		}
	case "youtu.be":
		id = strings.Trim(url.Path, "/")
	default:
		return nil, fmt.Errorf("unrecognised hostname")
	}
	if id == "" {
		return nil, fmt.Errorf("could not extract video ID")
	}
	return &id, nil
}

func init() {
	video_fetcher.DefaultProviderRegistry.MustAdd(New())
}
