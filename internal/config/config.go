package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/departures-cli/internal/extract"
	"github.com/sells-group/departures-cli/internal/ledger"
)

// Config holds the full application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Extract  extract.Layout `yaml:"extract" mapstructure:"extract"`
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Ledger   ledger.Options `yaml:"ledger" mapstructure:"ledger"`
	Run      RunConfig      `yaml:"run" mapstructure:"run"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig points at the departures board.
type SourceConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SnapshotConfig configures the JSON snapshot.
type SnapshotConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RunConfig configures a single pipeline run.
type RunConfig struct {
	Hold time.Duration `yaml:"hold" mapstructure:"hold"`
}

// StoreConfig configures the optional capture history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEPARTURES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	layout := extract.DefaultLayout()
	ledgerOpts := ledger.DefaultOptions()
	v.SetDefault("source.url", "https://www.cial.aero/Flights/Departures")
	v.SetDefault("source.user_agent", "")
	v.SetDefault("source.timeout_secs", 0)
	v.SetDefault("extract.row_selector", layout.RowSelector)
	v.SetDefault("extract.field_selector", layout.FieldSelector)
	v.SetDefault("extract.offsets", layout.Offsets)
	v.SetDefault("snapshot.path", "departures.json")
	v.SetDefault("ledger.path", ledgerOpts.Path)
	v.SetDefault("ledger.sheet", ledgerOpts.Sheet)
	v.SetDefault("ledger.on_time_color", ledgerOpts.OnTimeColor)
	v.SetDefault("ledger.delayed_color", ledgerOpts.DelayedColor)
	v.SetDefault("run.hold", 120*time.Second)
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail midway through a run.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Source.URL) == "" {
		problems = append(problems, "source.url is required")
	}
	if c.Source.TimeoutSecs < 0 {
		problems = append(problems, "source.timeout_secs must not be negative")
	}
	if strings.TrimSpace(c.Snapshot.Path) == "" {
		problems = append(problems, "snapshot.path is required")
	}
	if strings.TrimSpace(c.Ledger.Path) == "" {
		problems = append(problems, "ledger.path is required")
	}
	if strings.TrimSpace(c.Ledger.Sheet) == "" {
		problems = append(problems, "ledger.sheet is required")
	}
	if c.Run.Hold < 0 {
		problems = append(problems, "run.hold must not be negative")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
