package video_fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher/stream"
)

type testSource struct {
	url   string
	video *stream.Video
	err   error
}

func (s *testSource) URL() string {
	return s.url
}

func (s *testSource) Fetch(ctx context.Context) (*stream.Video, error) {
	return s.video, s.err
}

func prefixMatcher(prefix string) MatchFunc {
	return func(s string) (Source, error) {
		if !strings.HasPrefix(s, prefix) {
			return nil, errors.New("wrong prefix")
		}
		return &testSource{url: s, video: &stream.Video{ID: s, Title: prefix}}, nil
	}
}

func TestProviderRegistry_Add(t *testing.T) {
	assert := assert_.New(t)
	var r ProviderRegistry

	assert.ErrorIs(r.Add(Provider{Name: "", Match: prefixMatcher("a")}), ErrInvalidProvider)
	assert.ErrorIs(r.Add(Provider{Name: "a"}), ErrInvalidProvider)
	assert.NoError(r.Create("a", prefixMatcher("a")))
	assert.ErrorIs(r.Create("a", prefixMatcher("a")), ErrDuplicateProvider)
	assert.Panics(func() { r.MustCreate("a", prefixMatcher("a")) })
}

func TestProviderRegistry_Priority(t *testing.T) {
	assert := assert_.New(t)
	var r ProviderRegistry
	r.MustCreate("default", prefixMatcher("http"))
	r.MustAdd(Provider{Name: "low", Match: prefixMatcher("h")}.WithPriority(PriorityLowest))
	r.MustAdd(Provider{Name: "high", Match: prefixMatcher("https")}.WithPriority(PriorityHighest))
	r.MustCreate("default2", prefixMatcher("ftp"))
	// Equal priorities keep registration order
	assert.Equal([]string{"high", "default", "default2", "low"}, r.List())

	m, err := r.Match("https://example.com")
	assert.NoError(err)
	assert.Equal("high", m.ProviderName)
	m, err = r.Match("http://example.com")
	assert.NoError(err)
	assert.Equal("default", m.ProviderName)
	m, err = r.Match("hxxp://example.com")
	assert.NoError(err)
	assert.Equal("low", m.ProviderName)
}

func TestProviderRegistry_NoMatch(t *testing.T) {
	assert := assert_.New(t)
	var r ProviderRegistry

	_, err := r.Match("anything")
	assert.ErrorIs(err, ErrNoMatch)

	r.MustCreate("a", prefixMatcher("a"))
	r.MustCreate("b", prefixMatcher("b"))
	_, err = r.Match("c")
	assert.ErrorIs(err, ErrNoMatch)
	assert.ErrorIs(err, ErrInvalidURL)
	assert.Contains(err.Error(), "[a] wrong prefix")
	assert.Contains(err.Error(), "[b] wrong prefix")

}

func TestProviderRegistry_MatchWith(t *testing.T) {
	assert := assert_.New(t)
	var r ProviderRegistry
	r.MustAdd(Provider{Name: "a", Match: prefixMatcher("a")}.WithPriority(PriorityHighest))
	r.MustCreate("any", prefixMatcher(""))

	// Priority order is bypassed
	m, err := r.MatchWith("any", "abc")
	assert.NoError(err)
	assert.Equal("any", m.ProviderName)

	_, err = r.MatchWith("a", "b")
	assert.ErrorIs(err, ErrNoMatch)
	assert.ErrorIs(err, ErrInvalidURL)
	assert.Contains(err.Error(), "[a] wrong prefix")

	_, err = r.MatchWith("missing", "a")
	assert.ErrorIs(err, ErrUnknownProvider)
	assert.NotErrorIs(err, ErrInvalidURL)
	assert.Contains(err.Error(), "a, any")
}

func TestMatch_Fetch(t *testing.T) {
	assert := assert_.New(t)
	cause := errors.New("HTTP 429")
	m := &Match{ProviderName: "test", Source: &testSource{url: "test://x", err: cause}}

	_, err := m.Fetch(context.Background())
	assert.ErrorIs(err, ErrFetch)
	assert.ErrorIs(err, cause)
	var fetchErr *FetchError
	if assert.ErrorAs(err, &fetchErr) {
		assert.Equal("test://x", fetchErr.URL)
	}

	video := &stream.Video{ID: "x", Title: "X"}
	m.Source = &testSource{url: "test://x", video: video}
	got, err := m.Fetch(context.Background())
	assert.NoError(err)
	assert.Same(video, got)
}
