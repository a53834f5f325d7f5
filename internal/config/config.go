// Package config provides configuration structures and defaults for the
// locator-bench CLI, in the same DefaultConfig()-returns-a-populated-struct
// style as the rest of this codebase's ancestry.
package config

// Config is the complete locator-bench configuration.
type Config struct {
	Scenario ScenarioConfig `yaml:"scenario" mapstructure:"scenario"` // synthetic fixture generation settings
	Robust   RobustConfig   `yaml:"robust" mapstructure:"robust"`     // outer robust-loop settings
	GPS      GPSSeedConfig  `yaml:"gps" mapstructure:"gps"`           // gpsseed source settings (not read by the fixture generator)
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`   // logging configuration
}

// ScenarioConfig controls synthetic fixture generation.
type ScenarioConfig struct {
	Dim             int     `yaml:"dim" mapstructure:"dim"`                           // 2 or 3
	NumReadings     int     `yaml:"num_readings" mapstructure:"num_readings"`         // total readings per fixture
	OutlierFraction float64 `yaml:"outlier_fraction" mapstructure:"outlier_fraction"` // fraction of readings replaced with gross outliers
	Seed            int64   `yaml:"seed" mapstructure:"seed"`                         // RNG seed, for reproducible fixtures
	FrequencyHz     float64 `yaml:"frequency_hz" mapstructure:"frequency_hz"`         // carrier frequency used by the path-loss model
	OutputDir       string  `yaml:"output_dir" mapstructure:"output_dir"`             // where fixture/result files are written
}

// RobustConfig configures the outer robust estimation loop.
type RobustConfig struct {
	Method         string  `yaml:"method" mapstructure:"method"` // ransac, msac, lmeds, prosac, promeds
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`
	Confidence     float64 `yaml:"confidence" mapstructure:"confidence"`
	MaxIterations  int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	StopThreshold  float64 `yaml:"stop_threshold" mapstructure:"stop_threshold"`
	RefineResult   bool    `yaml:"refine_result" mapstructure:"refine_result"`
	KeepCovariance bool    `yaml:"keep_covariance" mapstructure:"keep_covariance"`
}

// GPSSeedConfig holds the gpsseed source settings (mode, track file,
// gpsd address). The fixture generator does not read them: fixture
// positions are always drawn at random.
type GPSSeedConfig struct {
	Mode      string `yaml:"mode" mapstructure:"mode"`             // none, track, or gpsd
	TrackFile string `yaml:"track_file" mapstructure:"track_file"` // NMEA track file path (for track mode)
	GPSDHost  string `yaml:"gpsd_host" mapstructure:"gpsd_host"`   // gpsd host (for gpsd mode)
	GPSDPort  string `yaml:"gpsd_port" mapstructure:"gpsd_port"`   // gpsd port (for gpsd mode)
}

// LoggingConfig contains logging configuration parameters.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns a configuration with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Scenario: ScenarioConfig{
			Dim:             2,         // planar scenarios by default
			NumReadings:     20,        // enough slack over min-subset for a meaningful outlier fraction
			OutlierFraction: 0.2,       // 20% of readings are gross outliers
			Seed:            1,         // deterministic by default
			FrequencyHz:     2.4e9,     // 2.4 GHz ISM band
			OutputDir:       "./bench", // relative output directory
		},
		Robust: RobustConfig{
			Method:        "ransac",
			Threshold:     3.0,  // 3 dB / 3 m inlier threshold
			Confidence:    0.99, // 99% confidence iteration bound
			MaxIterations: 2000,
			StopThreshold: 1e-4, // LMedS/PROMedS early-stop median threshold
			RefineResult:  true,
		},
		GPS: GPSSeedConfig{
			Mode:     "none", // synthetic scenarios don't need a ground-truth feed by default
			GPSDHost: "localhost",
			GPSDPort: "2947",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
