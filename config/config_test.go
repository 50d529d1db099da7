package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GreatValueCreamSoda/golandmarks/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFlags(t *testing.T) {
	fs := NewFlagSet("test")
	cfg, err := Load(fs, []string{"--sdk", "/opt/openbr", "--workers", "3",
		"--model", "ProfileFace", "--images", "a.png,b.png", "c.png"})
	require.NoError(t, err)

	assert.Equal(t, "/opt/openbr", cfg.SDKPath)
	assert.Equal(t, detection.ModelProfileFace, cfg.Model)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 0, cfg.MaxClassifiers)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, cfg.Images)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Progress)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GOLANDMARKS_SDK", "/env/sdk")
	t.Setenv("GOLANDMARKS_MAX_CLASSIFIERS", "2")

	cfg, err := Load(NewFlagSet("test"), []string{"face.png"})
	require.NoError(t, err)

	assert.Equal(t, "/env/sdk", cfg.SDKPath)
	assert.Equal(t, 2, cfg.MaxClassifiers)
}

func TestLoadFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golandmarks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"sdk: /file/sdk\nworkers: 5\nlog-level: debug\n"), 0o644))

	cfg, err := Load(NewFlagSet("test"), []string{"--config", path,
		"--workers", "2", "face.png"})
	require.NoError(t, err)

	assert.Equal(t, "/file/sdk", cfg.SDKPath)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string][]string{
		"missing sdk":      {"face.png"},
		"bad model":        {"--sdk", "/s", "--model", "Nose", "face.png"},
		"no workers":       {"--sdk", "/s", "--workers", "0", "face.png"},
		"no inputs":        {"--sdk", "/s"},
		"images and video": {"--sdk", "/s", "--video", "v.mkv", "face.png"},
		"negative bound":   {"--sdk", "/s", "--max-classifiers", "-1", "x.png"},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(NewFlagSet("test"), args)
			assert.Error(t, err)
		})
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load(NewFlagSet("test"), []string{"--help"})
	assert.ErrorIs(t, err, ErrHelp)
}

func TestFlagsAreGrouped(t *testing.T) {
	fs := NewFlagSet("test")
	assert.Equal(t, []string{"Observability Options"},
		fs.Lookup("metrics-addr").Annotations[FlagGroupAnnotation])
	assert.Panics(t, func() { AddFlagToHelpGroup(fs, "nope", "x") })
}
