package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SPARQL   SPARQLConfig   `yaml:"sparql" mapstructure:"sparql"`
	Crossref CrossrefConfig `yaml:"crossref" mapstructure:"crossref"`
	Cheminfo CheminfoConfig `yaml:"cheminfo" mapstructure:"cheminfo"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SPARQLConfig configures the knowledge-base query endpoint.
type SPARQLConfig struct {
	Endpoint  string  `yaml:"endpoint" mapstructure:"endpoint"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateRPS   float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// CrossrefConfig configures the bibliographic metadata client.
type CrossrefConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Mailto joins the polite pool; requests carry it in the query string.
	Mailto string `yaml:"mailto" mapstructure:"mailto"`
}

// CheminfoConfig configures the structure pre-processing service.
type CheminfoConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CacheConfig configures the optional persistent identifier cache.
type CacheConfig struct {
	// Driver is "off", "sqlite", or "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// InputConfig maps input-file column headers.
type InputConfig struct {
	ChemicalNameColumn string `yaml:"chemical_name_column" mapstructure:"chemical_name_column"`
	SMILESColumn       string `yaml:"smiles_column" mapstructure:"smiles_column"`
	TaxonColumn        string `yaml:"taxon_column" mapstructure:"taxon_column"`
	DOIColumn          string `yaml:"doi_column" mapstructure:"doi_column"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LOTUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("sparql.endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("sparql.user_agent", "lotus-cli/1.0 (https://github.com/sells-group/lotus-cli)")
	v.SetDefault("sparql.rate_rps", 5.0)
	v.SetDefault("crossref.base_url", "https://api.crossref.org")
	v.SetDefault("cheminfo.base_url", "https://api.naturalproducts.net/latest")
	v.SetDefault("cache.driver", "off")
	v.SetDefault("cache.path", "lotus-cache.db")
	v.SetDefault("cache.ttl_hours", 168)
	v.SetDefault("input.chemical_name_column", "chemical_entity_name")
	v.SetDefault("input.smiles_column", "chemical_entity_smiles")
	v.SetDefault("input.taxon_column", "taxon_name")
	v.SetDefault("input.doi_column", "reference_doi")

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
