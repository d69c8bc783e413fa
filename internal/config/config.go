// Package config loads stereo settings from a TOML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"stereo-depth/internal/models"

	"github.com/BurntSushi/toml"
)

const (
	EnvLogLevel     = "STEREO_LOG_LEVEL"
	EnvMaxDisparity = "STEREO_MAX_DISPARITY"
	EnvEngine       = "STEREO_ENGINE"
	EnvLogFormat    = "STEREO_LOG_FORMAT"
)

// File is the on-disk layout. Settings live under a [stereo] table.
type File struct {
	Stereo models.StereoSettings `toml:"stereo"`
}

// Load starts from the defaults, decodes path over them when path is not
// empty, applies environment overrides and validates the result.
func Load(path string) (models.StereoSettings, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (models.StereoSettings, error) {
	file := File{Stereo: models.DefaultStereoSettings()}

	if path != "" {
		meta, err := toml.DecodeFile(path, &file)
		if err != nil {
			return models.StereoSettings{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return models.StereoSettings{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	settings := file.Stereo
	if err := applyEnv(&settings, lookup); err != nil {
		return models.StereoSettings{}, err
	}

	if err := settings.Validate(); err != nil {
		return models.StereoSettings{}, err
	}

	return settings, nil
}

func applyEnv(settings *models.StereoSettings, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		settings.LogFormat = strings.ToLower(v)
	}
	if v, ok := lookup(EnvEngine); ok && v != "" {
		settings.Engine = v
	}
	if v, ok := lookup(EnvMaxDisparity); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxDisparity, v, err)
		}
		settings.MaxDisparity = n
	}
	return nil
}

// Write stores settings as a TOML file.
func Write(path string, settings models.StereoSettings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(File{Stereo: settings}); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
