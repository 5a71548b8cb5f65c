package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// Commands receive it so tests can substitute their own values.
type Interface interface {
	Logger() LoggerConfig
	Analysis() AnalysisConfig
	Report() ReportConfig
	Database() DatabaseConfig

	// Setters applied from command-line flags.
	SetReportOutputDir(dir string)
	SetReportFormats(formats []string)
	SetReportTitle(title string)
	SetDatabasePersist(b bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	AnalysisCfg AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	ReportCfg   ReportConfig   `mapstructure:"report" yaml:"report"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Analysis() AnalysisConfig { return c.AnalysisCfg }
func (c *Config) Report() ReportConfig     { return c.ReportCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }

func (c *Config) SetReportOutputDir(dir string)     { c.ReportCfg.OutputDir = dir }
func (c *Config) SetReportFormats(formats []string) { c.ReportCfg.Formats = formats }
func (c *Config) SetReportTitle(title string)       { c.ReportCfg.Title = title }
func (c *Config) SetDatabasePersist(b bool)         { c.DatabaseCfg.Persist = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AnalysisConfig tunes the dependency and scenario analysis.
type AnalysisConfig struct {
	// SystemApplication is skipped when resolving application references.
	SystemApplication string `mapstructure:"system_application" yaml:"system_application"`
	// SystemTypePrefixes mark message types supplied by the runtime.
	SystemTypePrefixes []string `mapstructure:"system_type_prefixes" yaml:"system_type_prefixes"`
	VerifySymmetry     bool     `mapstructure:"verify_symmetry" yaml:"verify_symmetry"`
	// FailOnError makes the CLI exit non-zero when the run has error diagnostics.
	FailOnError bool `mapstructure:"fail_on_error" yaml:"fail_on_error"`
}

// ReportConfig selects the report outputs.
type ReportConfig struct {
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
	Formats   []string `mapstructure:"formats" yaml:"formats"`
	Title     string   `mapstructure:"title" yaml:"title"`
}

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Persist bool   `mapstructure:"persist" yaml:"persist"`
}

var supportedFormats = map[string]bool{"sarif": true, "json": true, "html": true}

var supportedLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "dpanic": true, "panic": true, "fatal": true}

// NewDefaultConfig returns a configuration populated with the defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults registers every default on a viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "aim")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Analysis --
	v.SetDefault("analysis.system_application", "BizTalk.System")
	v.SetDefault("analysis.system_type_prefixes", []string{"System.", "Microsoft.XLANGs.", "Microsoft.BizTalk."})
	v.SetDefault("analysis.verify_symmetry", true)
	v.SetDefault("analysis.fail_on_error", true)

	// -- Report --
	v.SetDefault("report.output_dir", "./aim-output")
	v.SetDefault("report.formats", []string{"json"})
	v.SetDefault("report.title", "")

	// -- Database --
	v.SetDefault("database.url", "")
	v.SetDefault("database.persist", false)
}

// NewConfigFromViper decodes and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Connection strings carry credentials and usually come from the environment.
	_ = v.BindEnv("database.url", "AIM_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields that have a closed set of values.
func (c *Config) Validate() error {
	if !supportedLevels[strings.ToLower(c.LoggerCfg.Level)] {
		return fmt.Errorf("logger.level %q is not a valid level", c.LoggerCfg.Level)
	}
	if f := c.LoggerCfg.Format; f != "console" && f != "json" {
		return fmt.Errorf("logger.format must be console or json, got %q", f)
	}
	if err := c.ReportCfg.Validate(); err != nil {
		return fmt.Errorf("report configuration invalid: %w", err)
	}
	if err := c.DatabaseCfg.Validate(); err != nil {
		return fmt.Errorf("database configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the report formats.
func (r ReportConfig) Validate() error {
	if len(r.Formats) == 0 {
		return fmt.Errorf("formats must name at least one format")
	}
	for _, f := range r.Formats {
		if !supportedFormats[f] {
			return fmt.Errorf("unsupported format %q", f)
		}
	}
	return nil
}

// Validate requires a URL once persistence is enabled.
func (d DatabaseConfig) Validate() error {
	if d.Persist && d.URL == "" {
		return fmt.Errorf("url is required when persist is enabled")
	}
	return nil
}
