package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	DB      DBConfig      `mapstructure:"db" validate:"required"`
	JWT     JWTConfig     `mapstructure:"jwt" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	AppHost string        `mapstructure:"host" validate:"required,hostname_port"`
}

type DBConfig struct {
	Source string `mapstructure:"source" validate:"required"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret" validate:"required,min=16"`
	Lifetime time.Duration `mapstructure:"lifetime" validate:"required"`
}

// StorageConfig selects the blob backend. Backend "local" needs a path,
// "s3" needs the bucket block, "memory" needs nothing and holds blobs only
// for the lifetime of the process.
type StorageConfig struct {
	Backend string   `mapstructure:"backend" validate:"required,oneof=local s3 memory"`
	Path    string   `mapstructure:"path" validate:"required_if=Backend local"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	KeyPrefix string `mapstructure:"key_prefix"`
	PathStyle bool   `mapstructure:"path_style"`
}

func Load() (*Config, error) {
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/configs")
	viper.SetConfigName("settings")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("jwt.lifetime", "24h")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Storage.Backend == "s3" && cfg.Storage.S3.Bucket == "" {
		return fmt.Errorf("invalid configuration: storage.s3.bucket is required for the s3 backend")
	}
	return nil
}
