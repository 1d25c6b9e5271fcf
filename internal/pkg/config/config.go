package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/campusgeo/internal/pkg/pinhole"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Model     ModelConfig     `mapstructure:"model"`
	Camera    CameraConfig    `mapstructure:"camera"`
	CORS      CORSConfig      `mapstructure:"cors"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	BodyLimitMB  int `mapstructure:"body_limit_mb"`
	// ProcessTimeout bounds one detection request.
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
	// RateLimit is requests per minute per IP; 0 disables it.
	RateLimit int `mapstructure:"rate_limit"`
	// MaxImageMegapixels caps the decoded size of one upload.
	MaxImageMegapixels int    `mapstructure:"max_image_megapixels"`
	OpenAPIPath        string `mapstructure:"openapi_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Score engines.
const (
	EngineOpenCV    = "opencv"
	EngineTFServing = "tfserving"
)

type ModelConfig struct {
	Engine       string        `mapstructure:"engine"`
	Path         string        `mapstructure:"path"`
	TFServingURL string        `mapstructure:"tfserving_url"`
	Name         string        `mapstructure:"name"`
	InputSize    int           `mapstructure:"input_size"`
	UseGPU       bool          `mapstructure:"use_gpu"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type CameraConfig struct {
	FocalLengthMM        float64 `mapstructure:"focal_length_mm"`
	SensorHeightMM       float64 `mapstructure:"sensor_height_mm"`
	ReferenceImageHeight int     `mapstructure:"reference_image_height"`
	MountHeightM         float64 `mapstructure:"mount_height_m"`
}

// Camera converts the section into a pinhole calibration.
func (c CameraConfig) Camera() pinhole.Camera {
	return pinhole.Camera{
		FocalLengthMM:        c.FocalLengthMM,
		SensorHeightMM:       c.SensorHeightMM,
		MountHeightM:         c.MountHeightM,
		ReferenceImageHeight: c.ReferenceImageHeight,
	}
}

type CORSConfig struct {
	AllowOrigins string `mapstructure:"allow_origins"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: CAMPUSGEO_MODEL_PATH -> model.path
	v.SetEnvPrefix("CAMPUSGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	camera := pinhole.DefaultCamera()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit_mb", 32)
	v.SetDefault("server.process_timeout", "30s")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.max_image_megapixels", 48)
	v.SetDefault("server.openapi_path", "api/openapi.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("model.engine", EngineOpenCV)
	v.SetDefault("model.path", "models/campus_buildings.onnx")
	v.SetDefault("model.tfserving_url", "http://localhost:8501")
	v.SetDefault("model.name", "campus_buildings")
	v.SetDefault("model.input_size", 224)
	v.SetDefault("model.use_gpu", false)
	v.SetDefault("model.timeout", "10s")
	v.SetDefault("camera.focal_length_mm", camera.FocalLengthMM)
	v.SetDefault("camera.sensor_height_mm", camera.SensorHeightMM)
	v.SetDefault("camera.reference_image_height", camera.ReferenceImageHeight)
	v.SetDefault("camera.mount_height_m", camera.MountHeightM)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.ttl_seconds", 600)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, "server.body_limit_mb must be positive")
	}
	if c.Server.ProcessTimeout <= 0 {
		errs = append(errs, "server.process_timeout must be positive")
	}
	if c.Server.MaxImageMegapixels <= 0 {
		errs = append(errs, "server.max_image_megapixels must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}

	switch c.Model.Engine {
	case EngineOpenCV:
		if c.Model.Path == "" {
			errs = append(errs, "model.path is required for the opencv engine")
		}
	case EngineTFServing:
		if c.Model.TFServingURL == "" || c.Model.Name == "" {
			errs = append(errs, "model.tfserving_url and model.name are required for the tfserving engine")
		}
	default:
		errs = append(errs, fmt.Sprintf("model.engine must be %q or %q, got %q", EngineOpenCV, EngineTFServing, c.Model.Engine))
	}
	if c.Model.InputSize <= 0 {
		errs = append(errs, "model.input_size must be positive")
	}

	if err := c.Camera.Camera().Validate(); err != nil {
		errs = append(errs, "camera: "+strings.ReplaceAll(err.Error(), "\n", "; "))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled {
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required when valkey is enabled")
		}
		if c.Valkey.TTLSeconds <= 0 {
			errs = append(errs, "valkey.ttl_seconds must be positive when valkey is enabled")
		}
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
