package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Placeholder substituted in the commit message template.
const TimestampToken = "{timestamp}"

// Config holds all configuration for vaultpub
type Config struct {
	// Vault is the corpus root that documents and assets are read from.
	Vault   string        `mapstructure:"vault" json:"vault" yaml:"vault" toml:"vault"`
	Ignore  []string      `mapstructure:"ignore" json:"ignore" yaml:"ignore" toml:"ignore"`
	Publish PublishConfig `mapstructure:"publish" json:"publish" yaml:"publish" toml:"publish"`
	Git     GitConfig     `mapstructure:"git" json:"git" yaml:"git" toml:"git"`
}

// PublishConfig describes the target layout and how a batch is published.
type PublishConfig struct {
	// Root is the working tree of the target git repository. Must be absolute.
	Root          string   `mapstructure:"root" json:"root" yaml:"root" toml:"root"`
	Folder        string   `mapstructure:"folder" json:"folder" yaml:"folder" toml:"folder"`
	AssetsFolder  string   `mapstructure:"assets_folder" json:"assets_folder" yaml:"assets_folder" toml:"assets_folder"`
	CommitMessage string   `mapstructure:"commit_message" json:"commit_message" yaml:"commit_message" toml:"commit_message"`
	AutoCommit    bool     `mapstructure:"auto_commit" json:"auto_commit" yaml:"auto_commit" toml:"auto_commit"`
	Workers       int      `mapstructure:"workers" json:"workers" yaml:"workers" toml:"workers"`
	Include       []string `mapstructure:"include" json:"include" yaml:"include" toml:"include"`
	Exclude       []string `mapstructure:"exclude" json:"exclude" yaml:"exclude" toml:"exclude"`
}

// GitConfig selects the commit backend and the identity used for commits.
type GitConfig struct {
	Backend     string `mapstructure:"backend" json:"backend" yaml:"backend" toml:"backend"`
	AuthorName  string `mapstructure:"author_name" json:"author_name" yaml:"author_name" toml:"author_name"`
	AuthorEmail string `mapstructure:"author_email" json:"author_email" yaml:"author_email" toml:"author_email"`
}

// Git backends
const (
	BackendGoGit = "gogit"
	BackendCLI   = "cli"
)

var defaultConfig = Config{
	Vault:  ".",
	Ignore: []string{},
	Publish: PublishConfig{
		Folder:        "content",
		AssetsFolder:  "assets",
		CommitMessage: "vault publish: " + TimestampToken,
		AutoCommit:    true,
		Workers:       4,
		Include:       []string{"**/*.md"},
		Exclude:       []string{},
	},
	Git: GitConfig{
		Backend:     BackendGoGit,
		AuthorName:  "vaultpub",
		AuthorEmail: "vaultpub@localhost",
	},
}

// Default returns a copy of the built-in configuration.
func Default() Config {
	c := defaultConfig
	c.Ignore = append([]string{}, defaultConfig.Ignore...)
	c.Publish.Include = append([]string{}, defaultConfig.Publish.Include...)
	c.Publish.Exclude = append([]string{}, defaultConfig.Publish.Exclude...)
	return c
}

// projectConfigs are looked up in the working directory and merged over the global file.
var projectConfigs = []string{
	".vaultpub.yaml",
	".vaultpub.yml",
	".vaultpub.toml",
	".vaultpub.json",
}

// LoadOptions controls where LoadConfig looks.
type LoadOptions struct {
	// File, when set, is the only config file read.
	File string
	// Dir is searched for project config files. Defaults to the working directory.
	Dir string
	// Flags maps config keys to CLI flags; only flags the user changed override.
	Flags map[string]*pflag.Flag
}

// LoadConfig loads configuration from defaults, config files, VAULTPUB_* env and flags.
func LoadConfig(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VAULTPUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("vaultpub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if home, err := GetHome(); err == nil {
			v.AddConfigPath(filepath.Join(home, "config"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}

		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		for _, name := range projectConfigs {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merge project config %s: %w", path, err)
			}
			break
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateSchema(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vault", defaultConfig.Vault)
	v.SetDefault("ignore", defaultConfig.Ignore)
	v.SetDefault("publish.root", "")
	v.SetDefault("publish.folder", defaultConfig.Publish.Folder)
	v.SetDefault("publish.assets_folder", defaultConfig.Publish.AssetsFolder)
	v.SetDefault("publish.commit_message", defaultConfig.Publish.CommitMessage)
	v.SetDefault("publish.auto_commit", defaultConfig.Publish.AutoCommit)
	v.SetDefault("publish.workers", defaultConfig.Publish.Workers)
	v.SetDefault("publish.include", defaultConfig.Publish.Include)
	v.SetDefault("publish.exclude", defaultConfig.Publish.Exclude)
	v.SetDefault("git.backend", defaultConfig.Git.Backend)
	v.SetDefault("git.author_name", defaultConfig.Git.AuthorName)
	v.SetDefault("git.author_email", defaultConfig.Git.AuthorEmail)
}

// Validate checks the values a publish run depends on. It performs no I/O, so
// callers can run it before touching the filesystem.
func (c Config) Validate() error {
	p := c.Publish
	if strings.TrimSpace(p.Root) == "" {
		return &ValidationError{Field: "publish.root", Reason: "is required"}
	}
	if !filepath.IsAbs(p.Root) {
		return &ValidationError{Field: "publish.root", Value: p.Root, Reason: "must be an absolute path"}
	}
	if err := validateSubPath("publish.folder", p.Folder); err != nil {
		return err
	}
	if err := validateSubPath("publish.assets_folder", p.AssetsFolder); err != nil {
		return err
	}
	if strings.TrimSpace(c.Vault) == "" {
		return &ValidationError{Field: "vault", Reason: "is required"}
	}
	return nil
}

func validateSubPath(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if filepath.IsAbs(value) {
		return &ValidationError{Field: field, Value: value, Reason: "must be relative to publish.root"}
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Clean(value)), "/") {
		if seg == ".." {
			return &ValidationError{Field: field, Value: value, Reason: "must stay inside publish.root"}
		}
	}
	return nil
}

// PublishDir is the absolute directory documents are mirrored into.
func (c Config) PublishDir() string {
	return filepath.Join(c.Publish.Root, c.Publish.Folder)
}

// AssetsDir is the absolute directory assets are mirrored into.
func (c Config) AssetsDir() string {
	return filepath.Join(c.Publish.Root, c.Publish.AssetsFolder)
}

// GetHome returns the vaultpub home directory
func GetHome() (string, error) {
	if home := os.Getenv("VAULTPUB_HOME"); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vaultpub"), nil
}
