package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeDetector()
	c.normalizePredictor()
	c.normalizeOutput()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ModelPath, err = expandPath(strings.TrimSpace(c.Paths.ModelPath)); err != nil {
		return fmt.Errorf("paths.model_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.NFFT == 0 {
		c.Audio.NFFT = defaultNFFT
	}
	if c.Audio.HopLength == 0 {
		c.Audio.HopLength = defaultHopLength
	}
	if c.Audio.MelBands == 0 {
		c.Audio.MelBands = defaultMelBands
	}
	if c.Audio.MFCCCount == 0 {
		c.Audio.MFCCCount = defaultMFCCCount
	}
}

func (c *Config) normalizeDetector() {
	c.Detector.URL = strings.TrimSpace(c.Detector.URL)
	if c.Detector.URL == "" {
		if value, ok := os.LookupEnv(detectorURLEnv); ok {
			c.Detector.URL = strings.TrimSpace(value)
		}
	}
	if c.Detector.TimeoutSeconds <= 0 {
		c.Detector.TimeoutSeconds = defaultDetectorTimeoutSeconds
	}
}

func (c *Config) normalizePredictor() {
	c.Predictor.URL = strings.TrimSpace(c.Predictor.URL)
	if c.Predictor.URL == "" {
		if value, ok := os.LookupEnv(predictorURLEnv); ok {
			c.Predictor.URL = strings.TrimSpace(value)
		}
	}
	if c.Predictor.TimeoutSeconds <= 0 {
		c.Predictor.TimeoutSeconds = defaultPredictorTimeoutSeconds
	}
	if c.Predictor.GridSize == 0 {
		c.Predictor.GridSize = defaultGridSize
	}
}

func (c *Config) normalizeOutput() {
	c.Output.VideoCodec = strings.ToLower(strings.TrimSpace(c.Output.VideoCodec))
	if c.Output.VideoCodec == "" {
		c.Output.VideoCodec = defaultVideoCodec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
