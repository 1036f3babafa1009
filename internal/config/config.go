// Package config loads the environment-driven configuration shared by all
// three binaries (coordinator, puller, synchronizer), following the
// teacher's viper-based pattern: AutomaticEnv plus explicit defaults, with
// every field bindable from a single uppercase environment variable.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of environment-driven settings. Not every service
// uses every field (e.g. only the puller and synchronizer set MasterURL),
// but all three share one loader so the env var surface stays consistent.
type Config struct {
	Environment string `mapstructure:"environment"`

	HTTPHost    string `mapstructure:"http_host"`
	HTTPPort    int    `mapstructure:"http_port"`
	HTTPWorkers int    `mapstructure:"http_workers"`

	MasterURL  string `mapstructure:"master_url"`
	SelfTarget string `mapstructure:"self_target"`

	RemoteModelDirectory            string `mapstructure:"remote_model_directory"`
	LocalModelDirectory             string `mapstructure:"local_model_directory"`
	TemporaryModelDownloadDirectory string `mapstructure:"temporary_model_download_directory"`

	TensorflowServingConfigFile string `mapstructure:"tensorflow_serving_config_file"`
	TensorflowServingGRPCTarget string `mapstructure:"tensorflow_serving_grpc_target"`

	ConfigUpdateFrequency    time.Duration `mapstructure:"config_update_frequency"`
	RemoteModelPullFrequency time.Duration `mapstructure:"remote_model_pull_frequency"`

	Log LogConfig `mapstructure:"log"`

	StateCacheFile string `mapstructure:"state_cache_file"`

	S3Bucket       string `mapstructure:"s3_bucket"`
	S3Region       string `mapstructure:"s3_region"`
	S3Endpoint     string `mapstructure:"s3_endpoint"`
	S3AccessKeyID  string `mapstructure:"s3_access_key_id"`
	S3SecretKey    string `mapstructure:"s3_secret_access_key"`
	S3UsePathStyle bool   `mapstructure:"s3_use_path_style"`

	AuditProfile        string `mapstructure:"audit_profile"`
	AuditSQLitePath     string `mapstructure:"audit_sqlite_path"`
	AuditPostgresURL    string `mapstructure:"audit_postgres_url"`
	AuditMigrationsPath string `mapstructure:"audit_migrations_path"`
}

// LogConfig mirrors pkg/logger.Config, duplicated here (rather than
// imported) so this package has no dependency on pkg/logger; callers
// translate at the call site.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from the environment, applying defaults for
// anything unset. ENVIRONMENT must be one of production/integ/staging/test.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default are bound to their environment variable explicitly.
	for _, key := range []string{"s3_bucket", "s3_endpoint", "s3_access_key_id", "s3_secret_access_key", "audit_postgres_url"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")

	v.SetDefault("http_host", "0.0.0.0")
	v.SetDefault("http_port", 8080)
	v.SetDefault("http_workers", 4)

	v.SetDefault("master_url", "http://localhost:8080")
	v.SetDefault("self_target", "localhost:8080")

	v.SetDefault("remote_model_directory", "models")
	v.SetDefault("local_model_directory", "/var/lib/modelfleet/models")
	v.SetDefault("temporary_model_download_directory", "/var/lib/modelfleet/scratch")

	v.SetDefault("tensorflow_serving_config_file", "/var/lib/modelfleet/models.config")
	v.SetDefault("tensorflow_serving_grpc_target", "localhost:8500")

	v.SetDefault("config_update_frequency", "30s")
	v.SetDefault("remote_model_pull_frequency", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("state_cache_file", "/var/lib/modelfleet/state.db")

	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_use_path_style", false)

	v.SetDefault("audit_profile", "lite")
	v.SetDefault("audit_sqlite_path", "/var/lib/modelfleet/audit.db")
	v.SetDefault("audit_migrations_path", "/etc/modelfleet/migrations/audit")
}

func (c *Config) validate() error {
	switch c.Environment {
	case "production", "integ", "staging", "test":
	default:
		return fmt.Errorf("config: invalid ENVIRONMENT %q: must be one of production/integ/staging/test", c.Environment)
	}
	return nil
}
