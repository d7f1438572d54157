package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"

	"remotejobs-engine/internal/filter"
	"remotejobs-engine/internal/scrape/remoteok"
)

// EnvDataDir overrides the data directory that holds config.yml.
const EnvDataDir = "REMOTEJOBS_DATA_DIR"

const FileName = "config.yml"

type Config struct {
	App struct {
		Port      int    `yaml:"port" json:"port"`
		DataDir   string `yaml:"data_dir" json:"data_dir"`
		ExportDir string `yaml:"export_dir" json:"export_dir"`
	} `yaml:"app" json:"app"`

	Source struct {
		URL             string `yaml:"url" json:"url"`
		TimeoutSeconds  int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		UserAgent       string `yaml:"user_agent" json:"user_agent"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
	} `yaml:"source" json:"source"`

	Filters struct {
		DefaultDays     int      `yaml:"default_days" json:"default_days"`
		MaxDays         int      `yaml:"max_days" json:"max_days"`
		SalaryKeywords  []string `yaml:"salary_keywords" json:"salary_keywords"`
		SeniorityLevels []string `yaml:"seniority_levels" json:"seniority_levels"`
	} `yaml:"filters" json:"filters"`

	HTTP struct {
		RefreshPerMinute float64 `yaml:"refresh_per_minute" json:"refresh_per_minute"`
		RefreshBurst     int     `yaml:"refresh_burst" json:"refresh_burst"`
	} `yaml:"http" json:"http"`

	Logging struct {
		Verbosity int  `yaml:"verbosity" json:"verbosity"`
		JSON      bool `yaml:"json" json:"json"`
	} `yaml:"logging" json:"logging"`
}

// Default is the configuration written on first start.
func Default() Config {
	var c Config
	c.App.Port = 38471
	c.App.DataDir = "."
	c.App.ExportDir = "exports"

	c.Source.URL = remoteok.DefaultURL
	c.Source.TimeoutSeconds = int(remoteok.DefaultTimeout / time.Second)
	c.Source.UserAgent = remoteok.DefaultUserAgent
	c.Source.CacheTTLSeconds = 300

	c.Filters.DefaultDays = 30
	c.Filters.MaxDays = 30
	c.Filters.SalaryKeywords = append([]string(nil), filter.DefaultSalaryKeywords...)
	c.Filters.SeniorityLevels = append([]string(nil), filter.DefaultSeniorityLevels...)

	c.HTTP.RefreshPerMinute = 6
	c.HTTP.RefreshBurst = 2
	return c
}

// Load reads path on top of Default, so keys missing from the file keep
// their default values.
func Load(path string) (cfg Config, err error) {
	defer decorate.OnError(&err, "could not load config %s", path)

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg = Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolvePath returns explicit when set, else config.yml inside the data
// directory taken from REMOTEJOBS_DATA_DIR (default ".").
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir := os.Getenv(EnvDataDir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, FileName)
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Source.CacheTTLSeconds) * time.Second
}

// ExportDir resolves app.export_dir against app.data_dir when relative.
func (c Config) ExportDir() string {
	if filepath.IsAbs(c.App.ExportDir) {
		return c.App.ExportDir
	}
	return filepath.Join(c.App.DataDir, c.App.ExportDir)
}

func (c Config) FilterLimits() filter.Limits {
	return filter.Limits{MaxDays: c.Filters.MaxDays, SeniorityLevels: c.Filters.SeniorityLevels}
}

func (c Config) FilterEngine() filter.Engine {
	return filter.Engine{SalaryKeywords: c.Filters.SalaryKeywords}
}

func (c Config) ScraperConfig() remoteok.Config {
	return remoteok.Config{
		URL:       c.Source.URL,
		UserAgent: c.Source.UserAgent,
		Timeout:   c.SourceTimeout(),
	}
}
