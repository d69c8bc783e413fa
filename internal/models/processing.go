package models

import (
	"fmt"
	"slices"
)

const (
	EngineLocalWindow = "local-window"
	EngineEdgeBounded = "edge-bounded"

	DetectorSusan = "susan"
	DetectorCanny = "canny"

	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// StereoSettings configures which engine is built and how it runs.
type StereoSettings struct {
	Engine        string  `toml:"engine"`
	MaxDisparity  int     `toml:"max_disparity"`
	WindowSize    int     `toml:"window_size"`
	Bands         int     `toml:"bands"`
	PerChannel    bool    `toml:"per_channel"`
	Grayscale     bool    `toml:"grayscale"`
	EdgeDetector  string  `toml:"edge_detector"`
	EdgeThreshold int     `toml:"edge_threshold"`
	Seed          int64   `toml:"seed"`
	Scale         float64 `toml:"scale"`
	LogLevel      string  `toml:"log_level"`
	LogFormat     string  `toml:"log_format"`

	// PreBlurSigma smooths both inputs before matching; 0 disables it.
	PreBlurSigma float64 `toml:"pre_blur_sigma"`
	// MedianSize is the median filter aperture applied to the result; 0 or
	// 1 disables it.
	MedianSize int `toml:"median_size"`
}

// ParameterRange defines the valid range for a numeric parameter.
type ParameterRange struct {
	Min     int
	Max     int
	Options []string
}

var settingRanges = map[string]ParameterRange{
	"engine":         {Options: []string{EngineLocalWindow, EngineEdgeBounded}},
	"max_disparity":  {Min: 0, Max: 512},
	"window_size":    {Min: 1, Max: 63},
	"bands":          {Min: 1, Max: 256},
	"edge_detector":  {Options: []string{DetectorSusan, DetectorCanny}},
	"log_format":     {Options: []string{LogFormatConsole, LogFormatJSON}},
	"edge_threshold": {Min: 1, Max: 255},
	"median_size":    {Min: 0, Max: 5},
}

// MaxPreBlurSigma bounds PreBlurSigma.
const MaxPreBlurSigma = 5.0

// DefaultStereoSettings mirrors the values the capture tools used: 30 pixels
// of disparity and a 7 pixel window.
func DefaultStereoSettings() StereoSettings {
	return StereoSettings{
		Engine:        EngineLocalWindow,
		MaxDisparity:  30,
		WindowSize:    7,
		Bands:         1,
		PerChannel:    false,
		Grayscale:     true,
		EdgeDetector:  DetectorSusan,
		EdgeThreshold: 20,
		Seed:          0,
		Scale:         1.0,
		LogLevel:      "info",
		LogFormat:     LogFormatConsole,
	}
}

// Ranges returns the validation table, for UIs that build controls from it.
func Ranges() map[string]ParameterRange {
	out := make(map[string]ParameterRange, len(settingRanges))
	for k, v := range settingRanges {
		out[k] = v
	}
	return out
}

// Validate checks every parameter against its range.
func (s StereoSettings) Validate() error {
	if err := validateOption("engine", s.Engine); err != nil {
		return err
	}
	if err := validateOption("edge_detector", s.EdgeDetector); err != nil {
		return err
	}
	if err := validateOption("log_format", s.LogFormat); err != nil {
		return err
	}

	ints := []struct {
		name  string
		value int
	}{
		{"max_disparity", s.MaxDisparity},
		{"window_size", s.WindowSize},
		{"bands", s.Bands},
		{"edge_threshold", s.EdgeThreshold},
		{"median_size", s.MedianSize},
	}
	for _, p := range ints {
		r := settingRanges[p.name]
		if p.value < r.Min || p.value > r.Max {
			return NewValidationError(p.name, p.value,
				fmt.Sprintf("%s must be between %d and %d, got: %d", p.name, r.Min, r.Max, p.value))
		}
	}

	if s.Scale <= 0 || s.Scale > 1 {
		return NewValidationError("scale", s.Scale,
			fmt.Sprintf("scale must be in (0, 1], got: %f", s.Scale))
	}

	if s.MedianSize > 1 && s.MedianSize%2 == 0 {
		return NewValidationError("median_size", s.MedianSize,
			fmt.Sprintf("median_size must be odd, got: %d", s.MedianSize))
	}

	if s.PreBlurSigma < 0 || s.PreBlurSigma > MaxPreBlurSigma {
		return NewValidationError("pre_blur_sigma", s.PreBlurSigma,
			fmt.Sprintf("pre_blur_sigma must be between 0 and %.0f, got: %f", MaxPreBlurSigma, s.PreBlurSigma))
	}

	return nil
}

func validateOption(name, value string) error {
	r := settingRanges[name]
	if slices.Contains(r.Options, value) {
		return nil
	}
	return NewValidationError(name, value, fmt.Sprintf("%s must be one of %v", name, r.Options))
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Parameter string
	Value     interface{}
	Message   string
}

// NewValidationError creates a new validation error
func NewValidationError(parameter string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Value:     value,
		Message:   message,
	}
}

// Error returns the error message
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s' with value '%v': %s",
		ve.Parameter, ve.Value, ve.Message)
}
