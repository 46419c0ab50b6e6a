/*
Package config manages TOML config for WondrSuggest services.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wondrvoices/wondrsuggest/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	Source  SourceConfig  `toml:"source"`
	Suggest SuggestConfig `toml:"suggest"`
	Widget  WidgetConfig  `toml:"widget"`
	Server  ServerConfig  `toml:"server"`
}

// SourceConfig says where the suggestion payload comes from.
// File wins over URL when both are set.
type SourceConfig struct {
	URL       string `toml:"url"`
	File      string `toml:"file"`
	TimeoutMs int    `toml:"timeout_ms"`
	RetryMax  int    `toml:"retry_max"`
}

// SuggestConfig bounds suggestion requests.
type SuggestConfig struct {
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
	MaxQuery     int `toml:"max_query"`
}

// WidgetConfig holds the debounced input options.
type WidgetConfig struct {
	DebounceMs  int    `toml:"debounce_ms"`
	BlurGraceMs int    `toml:"blur_grace_ms"`
	Limit       int    `toml:"limit"`
	Status      string `toml:"status"`
}

// ServerConfig holds server options.
type ServerConfig struct {
	HTTPAddr string `toml:"http_addr"`
}

// Timeout returns the source timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// Debounce returns the debounce delay as a duration.
func (w WidgetConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// BlurGrace returns the blur grace delay as a duration.
func (w WidgetConfig) BlurGrace() time.Duration {
	return time.Duration(w.BlurGraceMs) * time.Millisecond
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(utils.ConfigHome(homeDir), "wondrsuggest")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "wondrsuggest")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wondrsuggest/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			TimeoutMs: 10000,
			RetryMax:  0,
		},
		Suggest: SuggestConfig{
			DefaultLimit: 10,
			MaxLimit:     64,
			MaxQuery:     120,
		},
		Widget: WidgetConfig{
			DebounceMs:  250,
			BlurGraceMs: 120,
			Limit:       8,
		},
		Server: ServerConfig{
			HTTPAddr: "",
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse salvages whatever sections of a broken TOML file still
// decode, keeping defaults for the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "source"); ok {
		extractSourceConfig(section, &config.Source)
	}
	if section, ok := utils.ExtractSection(tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.ExtractSection(tempConfig, "widget"); ok {
		extractWidgetConfig(section, &config.Widget)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractString(section, "http_addr"); ok {
			config.Server.HTTPAddr = val
		}
	}
	config.sanitize()
	return config, nil
}

func extractSourceConfig(data map[string]any, source *SourceConfig) {
	if val, ok := utils.ExtractString(data, "url"); ok {
		source.URL = val
	}
	if val, ok := utils.ExtractString(data, "file"); ok {
		source.File = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		source.TimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "retry_max"); ok {
		source.RetryMax = val
	}
}

func extractSuggestConfig(data map[string]any, suggest *SuggestConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		suggest.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		suggest.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		suggest.MaxQuery = val
	}
}

func extractWidgetConfig(data map[string]any, widget *WidgetConfig) {
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		widget.DebounceMs = val
	}
	if val, ok := utils.ExtractInt64(data, "blur_grace_ms"); ok {
		widget.BlurGraceMs = val
	}
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		widget.Limit = val
	}
	if val, ok := utils.ExtractString(data, "status"); ok {
		widget.Status = val
	}
}

// sanitize replaces nonsensical values with defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Suggest.MaxLimit <= 0 {
		c.Suggest.MaxLimit = def.Suggest.MaxLimit
	}
	if c.Suggest.DefaultLimit <= 0 || c.Suggest.DefaultLimit > c.Suggest.MaxLimit {
		c.Suggest.DefaultLimit = min(def.Suggest.DefaultLimit, c.Suggest.MaxLimit)
	}
	if c.Suggest.MaxQuery <= 0 {
		c.Suggest.MaxQuery = def.Suggest.MaxQuery
	}
	if c.Source.RetryMax < 0 {
		c.Source.RetryMax = 0
	}
	if c.Source.TimeoutMs <= 0 {
		c.Source.TimeoutMs = def.Source.TimeoutMs
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
