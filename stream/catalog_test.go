package stream

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher/generic"
)

func audio(id ID, container string, bitrate int) Variant {
	return Variant{
		ID:             id,
		Container:      container,
		Adaptive:       true,
		AudioOnly:      true,
		AverageBitrate: generic.Some(bitrate),
	}
}

func video(id ID, container string) Variant {
	return Variant{ID: id, Container: container, Adaptive: true}
}

func progressive(id ID, container string) Variant {
	return Variant{ID: id, Container: container}
}

var sampleVariants = []Variant{
	progressive(43, "webm"),
	progressive(18, "mp4"),
	progressive(22, "mp4"),
	video(137, "mp4"),
	video(248, "webm"),
	video(136, "mp4"),
	audio(139, "mp4", 48),
	audio(140, "mp4", 128),
	audio(251, "webm", 160),
}

func TestCatalog_BestProgressive(t *testing.T) {
	assert := assert_.New(t)
	c := NewCatalog(sampleVariants)

	best := c.BestProgressive("mp4")
	assert.True(best.IsSome())
	assert.Equal(ID(18), best.Unwrap().ID)
	assert.Equal(ID(43), c.BestProgressive("WEBM").Unwrap().ID)
	assert.True(c.BestProgressive("mkv").IsNone())

	// Adaptive variants never count as progressive, even when the container matches
	onlyAdaptive := NewCatalog([]Variant{video(137, "mp4"), audio(140, "mp4", 128)})
	assert.True(onlyAdaptive.BestProgressive("mp4").IsNone())
}

func TestCatalog_AdaptiveVideo(t *testing.T) {
	assert := assert_.New(t)
	c := NewCatalog(sampleVariants)

	ids := []ID{}
	for _, v := range c.AdaptiveVideo("mp4") {
		ids = append(ids, v.ID)
	}
	assert.Equal([]ID{137, 136}, ids)
	assert.Empty(c.AdaptiveVideo("mkv"))
}

func TestCatalog_BestAudioOnly(t *testing.T) {
	assert := assert_.New(t)
	c := NewCatalog(sampleVariants)

	assert.Equal(ID(140), c.BestAudioOnly("mp4").Unwrap().ID)
	assert.Equal(ID(251), c.BestAudioOnly("webm").Unwrap().ID)
	assert.True(c.BestAudioOnly("mkv").IsNone())
}

func TestCatalog_BestAudioOnly_Ties(t *testing.T) {
	assert := assert_.New(t)
	c := NewCatalog([]Variant{
		audio(1, "mp4", 128),
		audio(2, "mp4", 160),
		audio(3, "mp4", 160),
	})
	// Repeated queries are deterministic and pick the first of the highest bitrate
	for i := 0; i < 10; i++ {
		assert.Equal(ID(2), c.BestAudioOnly("mp4").Unwrap().ID)
	}
}

func TestCatalog_BestAudioOnly_UnknownBitrate(t *testing.T) {
	assert := assert_.New(t)
	unknown := audio(1, "mp4", 0)
	unknown.AverageBitrate = generic.None[int]()
	c := NewCatalog([]Variant{unknown, audio(2, "mp4", 0)})
	assert.Equal(ID(2), c.BestAudioOnly("mp4").Unwrap().ID)

	c = NewCatalog([]Variant{unknown})
	assert.Equal(ID(1), c.BestAudioOnly("mp4").Unwrap().ID)
}

func TestCatalog_ByID(t *testing.T) {
	assert := assert_.New(t)
	c := NewCatalog(sampleVariants)
	assert.Equal("mp4", c.ByID(140).Unwrap().Container)
	assert.True(c.ByID(999).IsNone())
}

func TestCatalog_Immutable(t *testing.T) {
	assert := assert_.New(t)
	variants := []Variant{progressive(18, "mp4")}
	c := NewCatalog(variants)
	variants[0].ID = 99
	assert.Equal(ID(18), c.BestProgressive("mp4").Unwrap().ID)
	all := c.All()
	all[0].ID = 98
	assert.Equal(ID(18), c.All()[0].ID)
}

func TestVariant_Kind(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("progressive", progressive(18, "mp4").Kind())
	assert.Equal("video", video(137, "mp4").Kind())
	assert.Equal("audio", audio(140, "mp4", 128).Kind())
	assert.True(video(137, "mp4").HasContainer(".MP4"))
	assert.Equal("video/mp4 [137]", video(137, "mp4").String())
}
