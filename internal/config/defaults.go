package config

const (
	defaultConfigPath              = "~/.config/omnisync/config.toml"
	defaultWorkDir                 = "~/.local/share/omnisync"
	defaultLogDir                  = "~/.local/share/omnisync/logs"
	defaultModelPath               = "~/.local/share/omnisync/models/omnisync_model.pth"
	defaultSampleRate              = 16000
	defaultNFFT                    = 2048
	defaultHopLength               = 512
	defaultMelBands                = 80
	defaultMFCCCount               = 13
	defaultDetectorTimeoutSeconds  = 10
	defaultConfidenceThreshold     = 0.5
	defaultPredictorTimeoutSeconds = 30
	defaultGridSize                = 64
	defaultBaseStrength            = 0.7
	defaultOutputFPS               = 25
	defaultVideoCodec              = "mpeg4"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"

	detectorURLEnv  = "OMNISYNC_DETECTOR_URL"
	predictorURLEnv = "OMNISYNC_PREDICTOR_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			ModelPath: defaultModelPath,
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
			NFFT:       defaultNFFT,
			HopLength:  defaultHopLength,
			MelBands:   defaultMelBands,
			MFCCCount:  defaultMFCCCount,
		},
		Detector: Detector{
			TimeoutSeconds:      defaultDetectorTimeoutSeconds,
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Predictor: Predictor{
			TimeoutSeconds: defaultPredictorTimeoutSeconds,
			GridSize:       defaultGridSize,
		},
		Guidance: Guidance{
			BaseStrength: defaultBaseStrength,
		},
		Output: Output{
			FPS:        defaultOutputFPS,
			VideoCodec: defaultVideoCodec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
