package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/citygml-stid/internal/citygml"
	"github.com/sells-group/citygml-stid/internal/stid"
)

// Config holds the full application configuration.
type Config struct {
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Scan   ScanConfig   `yaml:"scan" mapstructure:"scan"`
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates the CityGML document to scan.
type SourceConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Extension string `yaml:"extension" mapstructure:"extension"`
}

// ScanConfig configures the building scan.
type ScanConfig struct {
	Zoom            int    `yaml:"zoom" mapstructure:"zoom"`
	BuildingTag     string `yaml:"building_tag" mapstructure:"building_tag"`
	IDAttr          string `yaml:"id_attr" mapstructure:"id_attr"`
	ExtensionPrefix string `yaml:"extension_prefix" mapstructure:"extension_prefix"`
	GeometryTag     string `yaml:"geometry_tag" mapstructure:"geometry_tag"`
	CodeSpaceAttr   string `yaml:"codespace_attr" mapstructure:"codespace_attr"`
	CacheCodeSpaces bool   `yaml:"cache_codespaces" mapstructure:"cache_codespaces"`
}

// Vocabulary returns the tag vocabulary the scanner matches against.
func (s ScanConfig) Vocabulary() citygml.Vocabulary {
	return citygml.Vocabulary{
		BuildingTag:     s.BuildingTag,
		IDAttr:          s.IDAttr,
		ExtensionPrefix: s.ExtensionPrefix,
		GeometryTag:     s.GeometryTag,
		CodeSpaceAttr:   s.CodeSpaceAttr,
	}
}

// LedgerConfig selects and locates the ledger backend.
type LedgerConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	Path       string `yaml:"path" mapstructure:"path"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory, if present, is applied to the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	vocab := citygml.DefaultVocabulary()
	v.SetDefault("source.dir", "CityData/10201_maebashi-shi_city_2023_citygml_2_op/udx/bldg")
	v.SetDefault("source.extension", ".gml")
	v.SetDefault("scan.zoom", 18)
	v.SetDefault("scan.building_tag", vocab.BuildingTag)
	v.SetDefault("scan.id_attr", vocab.IDAttr)
	v.SetDefault("scan.extension_prefix", vocab.ExtensionPrefix)
	v.SetDefault("scan.geometry_tag", vocab.GeometryTag)
	v.SetDefault("scan.codespace_attr", vocab.CodeSpaceAttr)
	v.SetDefault("scan.cache_codespaces", false)
	v.SetDefault("ledger.driver", "json")
	v.SetDefault("ledger.path", "building_info.json")
	v.SetDefault("ledger.sqlite_path", "building_info.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	var errs []string

	if c.Scan.Zoom < 0 || c.Scan.Zoom > stid.MaxZoom {
		errs = append(errs, fmt.Sprintf("scan.zoom must be between 0 and %d", stid.MaxZoom))
	}
	for key, val := range map[string]string{
		"scan.building_tag":     c.Scan.BuildingTag,
		"scan.id_attr":          c.Scan.IDAttr,
		"scan.extension_prefix": c.Scan.ExtensionPrefix,
		"scan.geometry_tag":     c.Scan.GeometryTag,
		"scan.codespace_attr":   c.Scan.CodeSpaceAttr,
	} {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	switch c.Ledger.Driver {
	case "json":
		if c.Ledger.Path == "" {
			errs = append(errs, "ledger.path is required")
		}
	case "sqlite":
		if c.Ledger.SQLitePath == "" {
			errs = append(errs, "ledger.sqlite_path is required")
		}
	default:
		errs = append(errs, "ledger.driver must be json or sqlite")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
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
