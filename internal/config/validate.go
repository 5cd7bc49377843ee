package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateGuidance(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.NFFT <= 0 || c.Audio.NFFT&(c.Audio.NFFT-1) != 0 {
		return fmt.Errorf("audio.n_fft must be a positive power of two, got %d", c.Audio.NFFT)
	}
	if c.Audio.HopLength <= 0 {
		return errors.New("audio.hop_length must be positive")
	}
	if c.Audio.MelBands <= 0 {
		return errors.New("audio.mel_bands must be positive")
	}
	if c.Audio.MFCCCount <= 0 || c.Audio.MFCCCount > c.Audio.MelBands {
		return errors.New("audio.mfcc_count must be between 1 and audio.mel_bands")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	if err := validateURL("detector.url", c.Detector.URL); err != nil {
		return err
	}
	if c.Detector.ConfidenceThreshold < 0 || c.Detector.ConfidenceThreshold > 1 {
		return errors.New("detector.confidence_threshold must be between 0 and 1")
	}
	if err := validateURL("predictor.url", c.Predictor.URL); err != nil {
		return err
	}
	if c.Predictor.GridSize <= 0 {
		return errors.New("predictor.grid_size must be positive")
	}
	return nil
}

func (c *Config) validateGuidance() error {
	if c.Guidance.BaseStrength < 0 {
		return errors.New("guidance.base_strength must not be negative")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.FPS < 0 || math.IsNaN(c.Output.FPS) || math.IsInf(c.Output.FPS, 0) {
		return errors.New("output.fps must be zero (keep source rate) or positive")
	}
	return nil
}

func validateURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
