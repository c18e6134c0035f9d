package generic

import (
	"sort"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	assert := assert_.New(t)

	s := NewSet[string]()
	assert.Equal(0, s.Count())
	assert.False(s.Contains("mp4"))
	assert.True(s.Add("mp4"))
	assert.False(s.Add("mp4"))
	assert.Equal(1, s.Count())
	assert.True(s.Remove("mp4"))
	assert.False(s.Remove("mp4"))
	assert.False(s.Contains("mp4"))

	s2 := NewSet("webm", "mp4", "mkv")
	assert.True(s2.Contains("webm", "mkv"))
	assert.False(s2.Contains("webm", "flv"))
	items := s2.ToSlice()
	sort.Strings(items)
	assert.Equal([]string{"mkv", "mp4", "webm"}, items)
}
