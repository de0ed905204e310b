package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	appLog "dailybrief/internal/log"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: DAILYBRIEF_SPEECH__RATE=180 sets speech.rate.
const EnvPrefix = "DAILYBRIEF_"

const (
	SourceOutlook = "outlook"
	SourceICS     = "ics"
)

// ICSConfig describes a single ICS subscription source, e.g. a published
// Outlook calendar.
type ICSConfig struct {
	URL  string `koanf:"url" yaml:"url"`
	ID   string `koanf:"id" yaml:"id"`
	Name string `koanf:"name" yaml:"name"`
}

type OutlookConfig struct {
	// MaxScan caps the manual scan used when Items.Restrict fails.
	MaxScan int `koanf:"max_scan" yaml:"max_scan"`
}

type FilterConfig struct {
	// SkipKeywords drops events whose subject contains any of these
	// (case-insensitive).
	SkipKeywords []string `koanf:"skip_keywords" yaml:"skip_keywords"`
	// SkipCategories drops events carrying any of these Outlook categories.
	SkipCategories []string `koanf:"skip_categories" yaml:"skip_categories"`
}

type SpeechConfig struct {
	// Engine is one of auto, sapi, espeak, say, none.
	Engine string `koanf:"engine" yaml:"engine"`
	// Rate is the speaking rate in words per minute.
	Rate int `koanf:"rate" yaml:"rate"`
	// Volume is in the range 0.0 to 1.0.
	Volume float64 `koanf:"volume" yaml:"volume"`
	// VoiceIndex selects an installed voice by position when more than one
	// exists. Negative keeps the engine default.
	VoiceIndex int `koanf:"voice_index" yaml:"voice_index" validate:"min=-1"`
	// Voice selects a voice by name and wins over VoiceIndex.
	Voice string `koanf:"voice" yaml:"voice"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the briefing API.
type BasicAuthConfig struct {
	Username string `koanf:"username" yaml:"username" validate:"required_with=Password"`
	Password string `koanf:"password" yaml:"password" validate:"required_with=Username"`
}

func (b BasicAuthConfig) Enabled() bool {
	return b.Username != "" && b.Password != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone used to decide what "today" means. Empty
	// means the host's local zone.
	Timezone string `koanf:"timezone" yaml:"timezone" validate:"omitempty,timezone"`

	IncludeTomorrow bool `koanf:"include_tomorrow" yaml:"include_tomorrow"`
	IncludeAllDay   bool `koanf:"include_all_day" yaml:"include_all_day"`

	// NameFile stores the user's name. Defaults to user_name.txt next to
	// the config file.
	NameFile string `koanf:"name_file" yaml:"name_file"`

	// Source selects the calendar backend: outlook or ics.
	Source      string        `koanf:"source" yaml:"source"`
	Outlook     OutlookConfig `koanf:"outlook" yaml:"outlook"`
	ICS         []ICSConfig   `koanf:"ics" yaml:"ics"`
	ICSCacheDir string        `koanf:"ics_cache_dir" yaml:"ics_cache_dir"`

	Filter FilterConfig `koanf:"filter" yaml:"filter"`
	Speech SpeechConfig `koanf:"speech" yaml:"speech"`

	// Schedule is a cron expression ("0 8 * * 1-5"). Empty runs once.
	Schedule string `koanf:"schedule" yaml:"schedule"`

	// Listen enables the HTTP briefing API when non-empty.
	Listen    string          `koanf:"listen" yaml:"listen" validate:"omitempty,hostname_port"`
	BasicAuth BasicAuthConfig `koanf:"basic_auth" yaml:"basic_auth"`

	LogLevel string `koanf:"log_level" yaml:"log_level"`
}

var (
	defaultSkipKeywords   = []string{"birthday", "holiday", "anniversary"}
	defaultSkipCategories = []string{"Birthday", "Holiday"}
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		IncludeTomorrow: true,
		IncludeAllDay:   true,
		Source:          defaultSource(),
		Outlook:         OutlookConfig{MaxScan: 100},
		ICS:             []ICSConfig{},
		Filter: FilterConfig{
			SkipKeywords:   append([]string(nil), defaultSkipKeywords...),
			SkipCategories: append([]string(nil), defaultSkipCategories...),
		},
		Speech: SpeechConfig{
			Engine:     "auto",
			Rate:       150,
			Volume:     0.9,
			VoiceIndex: 1,
		},
		LogLevel: "info",
	}
}

func defaultSource() string {
	if runtime.GOOS == "windows" {
		return SourceOutlook
	}
	return SourceICS
}

// DefaultPath is $UserConfigDir/dailybrief/config.yaml, or a relative
// path when the user config dir cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "dailybrief.yaml")
	}
	return filepath.Join(dir, "dailybrief", "config.yaml")
}

// Normalize fills in missing/zero values and repairs out-of-range ones so
// partially-filled configs still behave.
func (c *Config) Normalize() {
	switch strings.ToLower(c.Source) {
	case SourceOutlook, SourceICS:
		c.Source = strings.ToLower(c.Source)
	default:
		c.Source = defaultSource()
	}
	if c.Outlook.MaxScan <= 0 {
		c.Outlook.MaxScan = 100
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Filter.SkipKeywords == nil {
		c.Filter.SkipKeywords = append([]string(nil), defaultSkipKeywords...)
	}
	if c.Filter.SkipCategories == nil {
		c.Filter.SkipCategories = append([]string(nil), defaultSkipCategories...)
	}

	c.Speech.Engine = strings.ToLower(strings.TrimSpace(c.Speech.Engine))
	switch c.Speech.Engine {
	case "auto", "sapi", "espeak", "say", "none":
	default:
		c.Speech.Engine = "auto"
	}
	if c.Speech.Rate <= 0 {
		c.Speech.Rate = 150
	}
	if c.Speech.Volume < 0 || c.Speech.Volume > 1 {
		c.Speech.Volume = 0.9
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads configuration from defaults, the YAML file at path and
// DAILYBRIEF_ environment variables, in that order of precedence.
//
// A missing file is created with the defaults (0600) so the user has
// something to edit.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		appLog.Info("config file not found; writing defaults", "path", path)
		if err := Save(path, DefaultConfig()); err != nil {
			appLog.Error("failed to write default config", err, "path", path)
		}
	} else {
		appLog.Debug("loaded configuration file", "path", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
			return strings.ReplaceAll(k, "__", "."), v
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.NameFile == "" {
		cfg.NameFile = filepath.Join(filepath.Dir(path), "user_name.txt")
	}
	if cfg.ICSCacheDir == "" {
		cfg.ICSCacheDir = defaultCacheDir(path)
	}

	return &cfg, nil
}

// Validate checks values Normalize cannot repair: the timezone, the listen
// address and the basic auth pair.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func defaultCacheDir(configPath string) string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "dailybrief", "ics")
	}
	return filepath.Join(filepath.Dir(configPath), "ics-cache")
}

// Save writes cfg to path as YAML: parent dir 0700, temp file + rename,
// final mode 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}

	return writeFileAtomic(dir, path, data)
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".dailybrief-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
