package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"gopkg.in/yaml.v3"
)

// Defaults applied when config.yaml omits a value
const (
	DefaultMaxParallel        = 8
	DefaultThreadsPerDownload = 8
	DefaultMaxPerHost         = 4
	DefaultRequestsPerSecond  = 5
)

// Config holds global application settings
type Config struct {
	Folders            []FolderConfig `yaml:"folders"`
	DefaultFolder      string         `yaml:"default_folder,omitempty"`
	VersionMatch       string         `yaml:"version_match"`
	PostUpdate         string         `yaml:"post_update"`
	MaxParallel        int            `yaml:"max_parallel"`
	ThreadsPerDownload int            `yaml:"threads_per_download"`
	MaxPerHost         int            `yaml:"max_per_host"`
	RequestsPerSecond  float64        `yaml:"requests_per_second"`
	Sources            []string       `yaml:"sources"`
	Placement          string         `yaml:"placement"`
	ShowTagCategories  []string       `yaml:"show_tag_categories,omitempty"`
	StagingPath        string         `yaml:"staging_path,omitempty"`
	LogLevel           string         `yaml:"log_level,omitempty"`
	LogFile            string         `yaml:"log_file,omitempty"`
}

// Options is the immutable snapshot of settings the engine consumes
type Options struct {
	GameVersionRule    domain.GameVersionRule
	Retention          domain.RetentionPolicy
	MaxParallel        int
	ThreadsPerDownload int
	MaxPerHost         int
	RequestsPerSecond  float64
	Sources            domain.SourceSelector
	Placement          domain.PlacementMethod
	ShowTagCategories  []domain.TagCategory // Empty shows every category
}

func defaults() *Config {
	return &Config{
		VersionMatch:       domain.MatchMinor.String(),
		PostUpdate:         domain.RetainUntilConfirm.String(),
		MaxParallel:        DefaultMaxParallel,
		ThreadsPerDownload: DefaultThreadsPerDownload,
		MaxPerHost:         DefaultMaxPerHost,
		RequestsPerSecond:  DefaultRequestsPerSecond,
		Sources:            []string{domain.SiteCurseforge.String(), domain.SiteModrinth.String()},
		Placement:          domain.PlaceMove.String(),
	}
}

// Load reads configuration from the given directory.
// A missing file yields the defaults; invalid values are reported as ErrInvalidConfig.
func Load(configDir string) (*Config, error) {
	cfg := defaults()

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Return defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %w", domain.ErrInvalidConfig, err)
	}

	if _, err := cfg.Options(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Options validates the settings and returns a snapshot of them
func (c *Config) Options() (Options, error) {
	var errs []error

	rule, ok := domain.ParseGameVersionRule(c.VersionMatch)
	if !ok {
		errs = append(errs, fmt.Errorf("version_match %q: want exact, minor or major", c.VersionMatch))
	}
	retention, ok := domain.ParseRetentionPolicy(c.PostUpdate)
	if !ok {
		errs = append(errs, fmt.Errorf("post_update %q: want delete, keep or nothing", c.PostUpdate))
	}
	placement, ok := domain.ParsePlacementMethod(c.Placement)
	if !ok {
		errs = append(errs, fmt.Errorf("placement %q: want move, copy or hardlink", c.Placement))
	}

	var sites []domain.SourceSite
	for _, s := range c.Sources {
		site, ok := domain.ParseSourceSite(s)
		if !ok || site == domain.SiteLocal {
			errs = append(errs, fmt.Errorf("sources: unknown catalog %q", s))
			continue
		}
		sites = append(sites, site)
	}

	var categories []domain.TagCategory
	for _, s := range c.ShowTagCategories {
		cat, ok := domain.ParseTagCategory(s)
		if !ok {
			errs = append(errs, fmt.Errorf("show_tag_categories: unknown category %q", s))
			continue
		}
		categories = append(categories, cat)
	}

	for _, f := range c.Folders {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Path) == "" {
			errs = append(errs, fmt.Errorf("folders: every folder needs a name and a path"))
			break
		}
	}

	if len(errs) > 0 {
		return Options{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}

	return Options{
		GameVersionRule:    rule,
		Retention:          retention,
		MaxParallel:        positiveOr(c.MaxParallel, DefaultMaxParallel),
		ThreadsPerDownload: positiveOr(c.ThreadsPerDownload, DefaultThreadsPerDownload),
		MaxPerHost:         positiveOr(c.MaxPerHost, DefaultMaxPerHost),
		RequestsPerSecond:  c.RequestsPerSecond,
		Sources:            domain.SourceSelector{Sites: sites},
		Placement:          placement,
		ShowTagCategories:  categories,
	}, nil
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
