// Package config loads CLI settings with viper from the XDG config file,
// FOODSHARE_* environment variables and command-line flags, in increasing
// order of precedence. Only non-secret settings are kept here; the session
// token goes to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foodshare/cli/internal/xdg"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultAPIURL   = "http://localhost:8080/api"
	DefaultTimeout  = 15 * time.Second
	DefaultLogLevel = "info"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	APIURL     string        `mapstructure:"api_url" json:"api_url"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout"`
	LogLevel   string        `mapstructure:"log_level" json:"log_level"`
	Verbose    bool          `mapstructure:"verbose" json:"verbose"`
	NoKeychain bool          `mapstructure:"no_keychain" json:"no_keychain"`
	Keyring    KeyringConfig `mapstructure:"keyring" json:"keyring"`
}

// KeyringConfig configures the encrypted file keyring used when no OS
// keychain is reachable.
type KeyringConfig struct {
	FileDir    string `mapstructure:"file_dir" json:"file_dir"`
	Passphrase string `mapstructure:"passphrase" json:"-"`
}

// Options select where Load reads from.
type Options struct {
	// File overrides the config file location.
	File string
	// Flags are bound by their names with "-" read as "_", e.g. --api-url.
	Flags *pflag.FlagSet
}

// Load reads configuration; a missing file yields defaults. It returns the
// config and the path of the file read, empty when none was found.
func Load(opts Options) (*Config, string, error) {
	v := viper.New()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return nil, "", err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("FOODSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v); err != nil {
		return nil, "", err
	}
	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, "", err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, "", fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("validating config: %w", err)
	}
	return &cfg, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) error {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("verbose", false)
	v.SetDefault("no_keychain", false)

	state, err := xdg.StateDir()
	if err != nil {
		return err
	}
	v.SetDefault("keyring.file_dir", filepath.Join(state, "keyring"))
	v.SetDefault("keyring.passphrase", "")
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

func validate(c *Config) error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes the persistent settings of c to path, or to config.yaml in the
// XDG config dir when path is empty, and returns the path written. Keys already
// in the file that c does not cover are kept. The file ends up 0600.
func Save(c Config, path string) (string, error) {
	p := path
	if p == "" {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(dir, "config.yaml")
	} else if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", err
	}

	v := viper.New()
	v.SetConfigFile(p)
	if filepath.Ext(p) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	v.Set("api_url", c.APIURL)
	v.Set("timeout", c.Timeout.String())
	v.Set("log_level", c.LogLevel)
	if c.NoKeychain {
		v.Set("no_keychain", true)
	}
	if c.Keyring.FileDir != "" {
		v.Set("keyring.file_dir", c.Keyring.FileDir)
	}
	if err := v.WriteConfigAs(p); err != nil {
		return "", err
	}
	return p, os.Chmod(p, 0o600)
}
