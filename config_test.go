package video_fetcher

import (
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	assert := assert_.New(t)
	cfg, err := LoadConfig("")
	assert.NoError(err)
	assert.Equal(DefaultConfig, cfg)
}

func TestLoadConfig_File(t *testing.T) {
	assert := assert_.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "target_dir: /srv/videos\ncontainer: .MP4\nchunk_size: 4096\n"
	assert.NoError(os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadConfig(path)
	assert.NoError(err)
	assert.Equal("/srv/videos", cfg.TargetDir)
	assert.Equal("mp4", cfg.Container)
	assert.Equal(4096, cfg.ChunkSize)
	assert.Equal(DefaultConfig.NamingLimit, cfg.NamingLimit)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert_.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert := assert_.New(t)
	cfg := Config{}
	assert.NoError(cfg.Validate())
	assert.Equal(DefaultConfig, cfg)

	cfg = Config{ChunkSize: -1}
	assert.Error(cfg.Validate())
	cfg = Config{NamingLimit: -1}
	assert.Error(cfg.Validate())
}
