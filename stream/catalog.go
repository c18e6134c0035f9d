package stream

import (
	"github.com/samber/lo"

	"github.com/alanbriolat/video-fetcher/generic"
)

// Catalog answers selection queries over an ordered, read-only list of variants.
type Catalog struct {
	variants []Variant
}

func NewCatalog(variants []Variant) *Catalog {
	return &Catalog{variants: append([]Variant(nil), variants...)}
}

// All returns a copy of the variants in catalog order.
func (c *Catalog) All() []Variant {
	return append([]Variant(nil), c.variants...)
}

// BestProgressive returns the first progressive (combined video and audio) variant in container.
func (c *Catalog) BestProgressive(container string) generic.Option[Variant] {
	if v, ok := lo.Find(c.variants, func(v Variant) bool {
		return v.IsProgressive() && v.HasContainer(container)
	}); ok {
		return generic.Some(v)
	}
	return generic.None[Variant]()
}

// AdaptiveVideo returns all video-only variants in container, in catalog order.
func (c *Catalog) AdaptiveVideo(container string) []Variant {
	return lo.Filter(c.variants, func(v Variant, _ int) bool {
		return v.IsVideoOnly() && v.HasContainer(container)
	})
}

// BestAudioOnly returns the audio-only variant in container with the highest average bitrate. Variants with an
// unknown bitrate rank below all known bitrates, and ties go to the earliest variant in catalog order.
func (c *Catalog) BestAudioOnly(container string) generic.Option[Variant] {
	candidates := lo.Filter(c.variants, func(v Variant, _ int) bool {
		return v.AudioOnly && v.Adaptive && v.HasContainer(container)
	})
	if len(candidates) == 0 {
		return generic.None[Variant]()
	}
	// lo.MaxBy keeps the first of equal elements when the comparison is strict
	return generic.Some(lo.MaxBy(candidates, func(a, b Variant) bool {
		return a.AverageBitrate.UnwrapOr(-1) > b.AverageBitrate.UnwrapOr(-1)
	}))
}

func (c *Catalog) ByID(id ID) generic.Option[Variant] {
	if v, ok := lo.Find(c.variants, func(v Variant) bool { return v.ID == id }); ok {
		return generic.Some(v)
	}
	return generic.None[Variant]()
}
