// Package stream describes the encodings available for a video and answers selection queries over them.
package stream

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alanbriolat/video-fetcher/generic"
)

// ID is the stable identifier of a Variant within a Video, e.g. a YouTube itag.
type ID int

// Variant is one independently downloadable encoding of a video.
type Variant struct {
	ID ID
	// Container is the file extension / mime subtype, e.g. "mp4" or "webm".
	Container string
	// Adaptive is true for video-only and audio-only encodings, false for progressive (combined) ones.
	Adaptive bool
	// AudioOnly implies Adaptive.
	AudioOnly bool
	// AverageBitrate is only used to rank audio variants.
	AverageBitrate generic.Option[int]
	Size           generic.Option[int64]
	Label          string
}

// IsProgressive returns true for encodings that contain both video and audio.
func (v Variant) IsProgressive() bool {
	return !v.Adaptive
}

// IsVideoOnly returns true for adaptive encodings that carry the video track.
func (v Variant) IsVideoOnly() bool {
	return v.Adaptive && !v.AudioOnly
}

// Kind names the category of the variant for display.
func (v Variant) Kind() string {
	switch {
	case v.AudioOnly:
		return "audio"
	case v.Adaptive:
		return "video"
	default:
		return "progressive"
	}
}

func (v Variant) String() string {
	if v.Label != "" {
		return fmt.Sprintf("%s [%d]", v.Label, v.ID)
	}
	return fmt.Sprintf("%s/%s [%d]", v.Kind(), v.Container, v.ID)
}

// HasContainer matches container case-insensitively, ignoring a leading ".".
func (v Variant) HasContainer(container string) bool {
	return strings.EqualFold(v.Container, strings.TrimPrefix(container, "."))
}

// An Opener produces the bytes of one variant. The returned size is the expected total, or <= 0 if unknown.
type Opener interface {
	Open(ctx context.Context, variant Variant) (io.ReadCloser, int64, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, variant Variant) (io.ReadCloser, int64, error)

func (f OpenerFunc) Open(ctx context.Context, variant Variant) (io.ReadCloser, int64, error) {
	return f(ctx, variant)
}

// Video is the fetched metadata of one video, immutable for the lifetime of a job.
type Video struct {
	ID       string
	Title    string
	Variants []Variant
	Opener   Opener
}

// Catalog returns a query view over the video's variants.
func (v *Video) Catalog() *Catalog {
	return NewCatalog(v.Variants)
}

func (v *Video) String() string {
	return fmt.Sprintf("%s [%s]", v.Title, v.ID)
}
