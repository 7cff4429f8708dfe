package config

import (
	"equivcrawl/internal/crawler"
	"equivcrawl/internal/registrar"
	"equivcrawl/lib/configutil"
	"fmt"
	"time"
)

const DefaultPath = "equivcrawl.json5"

type RegistrarConfig struct {
	Endpoint       string `json:"endpoint"`
	SearchType     string `json:"search_type"`
	PoolSize       int    `json:"pool_size"`
	RetryCount     int    `json:"retry_count"`
	TimeoutSeconds int    `json:"timeout_seconds"`

	NoDataLength int    `json:"no_data_length"`
	NoDataMarker string `json:"no_data_marker"`

	UserAgent        string `json:"user_agent"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	// DumpDir receives every http exchange when set.
	DumpDir string `json:"dump_dir"`
}

type CrawlConfig struct {
	Workers  int `json:"workers"`
	KeyStart int `json:"key_start"`
	KeyCount int `json:"key_count"`
	KeyWidth int `json:"key_width"`
}

type Config struct {
	OutputDir string          `json:"output_dir"`
	Registrar RegistrarConfig `json:"registrar"`
	Crawl     CrawlConfig     `json:"crawl"`
}

func Default() Config {
	return Config{
		OutputDir: "outputs",
		Registrar: RegistrarConfig{
			Endpoint:       registrar.DefaultEndpoint,
			SearchType:     registrar.DefaultSearchType,
			PoolSize:       registrar.DefaultPoolSize,
			RetryCount:     registrar.DefaultRetryCount,
			TimeoutSeconds: int(registrar.DefaultTimeout / time.Second),
			NoDataLength:   registrar.DefaultNoDataLength,
		},
		Crawl: CrawlConfig{
			Workers:  crawler.DefaultWorkers,
			KeyStart: crawler.DefaultKeyStart,
			KeyCount: crawler.DefaultKeyCount,
			KeyWidth: crawler.DefaultKeyWidth,
		},
	}
}

// Load reads the config at `path` (and its .local override), unset fields keep
// their default. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadWithDefaults(path, Default())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir must be set")
	}
	if c.Registrar.PoolSize <= 0 {
		return fmt.Errorf("config: registrar.pool_size must be positive, got %d", c.Registrar.PoolSize)
	}
	if c.Registrar.RetryCount < 0 {
		return fmt.Errorf("config: registrar.retry_count must not be negative, got %d", c.Registrar.RetryCount)
	}
	if c.Crawl.Workers <= 0 {
		return fmt.Errorf("config: crawl.workers must be positive, got %d", c.Crawl.Workers)
	}
	if c.Crawl.KeyStart < 0 {
		return fmt.Errorf("config: crawl.key_start must not be negative, got %d", c.Crawl.KeyStart)
	}
	if c.Crawl.KeyCount <= 0 {
		return fmt.Errorf("config: crawl.key_count must be positive, got %d", c.Crawl.KeyCount)
	}
	if c.Crawl.KeyWidth <= 0 {
		return fmt.Errorf("config: crawl.key_width must be positive, got %d", c.Crawl.KeyWidth)
	}
	return nil
}

// Keys is the key space described by the crawl config.
func (c Config) Keys() []string {
	return crawler.Keys(c.Crawl.KeyStart, c.Crawl.KeyCount, c.Crawl.KeyWidth)
}

// ClientOptions converts the registrar config into client options.
func (c RegistrarConfig) ClientOptions() registrar.ClientOptions {
	return registrar.ClientOptions{
		Endpoint:         c.Endpoint,
		SearchType:       c.SearchType,
		PoolSize:         c.PoolSize,
		RetryCount:       c.RetryCount,
		Timeout:          time.Duration(c.TimeoutSeconds) * time.Second,
		NoDataLength:     c.NoDataLength,
		NoDataMarker:     c.NoDataMarker,
		UserAgent:        c.UserAgent,
		CloudflareBypass: c.CloudflareBypass,
	}
}
