package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied after the server config file is read.
const (
	EnvServerAddress       = config.EnvPrefix + "_SERVER_ADDRESS"
	EnvServerMaxUploadSize = config.EnvPrefix + "_SERVER_MAX_UPLOAD_SIZE"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address           string               `yaml:"address" validate:"required"`
	MaxUploadSize     string               `yaml:"maxUploadSize"`
	ReadHeaderTimeout time.Duration        `yaml:"readHeaderTimeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration        `yaml:"shutdownTimeout" validate:"gte=0"`
	RateLimit         float64              `yaml:"rateLimit" validate:"gte=0"` // requests per second per client, 0 disables
	RateBurst         int                  `yaml:"rateBurst" validate:"gte=0"`
	Logging           config.LoggingConfig `yaml:"logging"`
	uploadSizeBytes   int64
}

type loggingRules struct {
	Level  string `validate:"omitempty,oneof=debug info warn warning error"`
	Format string `validate:"omitempty,oneof=json console"`
}

var validate = validator.New()

// Validate checks field constraints and reports every violation as
// "field: rule".
func (c *Config) Validate() error {
	var violations []string
	collect := func(err error) error {
		if err == nil {
			return nil
		}
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, ve := range validationErrors {
			violations = append(violations, fmt.Sprintf("%s: %s", ve.Namespace(), ve.Tag()))
		}
		return nil
	}

	if err := collect(validate.Struct(c)); err != nil {
		return err
	}
	if err := collect(validate.Struct(loggingRules{Level: c.Logging.Level, Format: c.Logging.Format})); err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("invalid server config: %s", strings.Join(violations, ", "))
	}
	return nil
}

// LoadConfig loads the server configuration from YAML and applies
// PLANNER_SERVER_* environment overrides. If the file does not exist, defaults
// are used without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:           constants.DefaultServerAddress,
		MaxUploadSize:     fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		ShutdownTimeout:   constants.DefaultShutdownTimeout,
		Logging:           config.LoggingConfig{},
		uploadSizeBytes:   constants.DefaultMaxUploadSizeBytes,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if address := strings.TrimSpace(os.Getenv(EnvServerAddress)); address != "" {
		cfg.Address = address
	}
	if size := strings.TrimSpace(os.Getenv(EnvServerMaxUploadSize)); size != "" {
		cfg.MaxUploadSize = size
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	if numPart == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
