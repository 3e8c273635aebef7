// Package config provides functionality for loading, saving, and managing
// application configuration settings.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mindnoscape/workbook/internal/model"
)

// DefaultPath is used when no config path is given.
const DefaultPath = "./data/config.json"

// EnvPrefix prefixes every environment override, e.g. MINDNOSCAPE_LOG_LEVEL.
const EnvPrefix = "MINDNOSCAPE_"

// Global variables to store the current configuration and its file path.
var (
	currentConfig *model.Config
	configPath    = DefaultPath
	validate      = validator.New()
)

// Default returns the configuration written when no config file exists.
func Default() *model.Config {
	return &model.Config{
		DatabaseType:      "sqlite3",
		DatabaseDir:       "./data",
		DatabaseFile:      "mindnoscape.db",
		LogFolder:         "./logs",
		LogFile:           "mindnoscape.log",
		LogLevel:          "info",
		HistoryFile:       "./data/.history",
		ExportDir:         "./export",
		IDFormat:          "uuid",
		UseColor:          true,
		DefaultUser:       "default",
		DefaultUserActive: true,
	}
}

// ConfigLoad loads the configuration from path, chosen by extension (.json, .yaml,
// .yml or .toml). An empty path means DefaultPath. If the file doesn't exist, it is
// created with the default configuration. A .env file next to the working directory
// and MINDNOSCAPE_* variables override file values.
func ConfigLoad(path string) error {
	if path == "" {
		path = DefaultPath
	}
	configPath = path

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := ConfigSave(cfg); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(configPath, data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A missing .env is not an error
	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return err
	}

	if err := Validate(cfg); err != nil {
		return err
	}
	currentConfig = cfg
	return nil
}

// ConfigSave saves the provided configuration to the current config path.
func ConfigSave(cfg *model.Config) error {
	data, err := encode(configPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigGet returns the current configuration.
func ConfigGet() *model.Config {
	return currentConfig
}

// ConfigPath returns the path the configuration was loaded from.
func ConfigPath() string {
	return configPath
}

// Validate checks cfg against its validation tags.
func Validate(cfg *model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func decode(path string, data []byte, cfg *model.Config) error {
	switch format(path) {
	case "yaml":
		return yaml.Unmarshal(data, cfg)
	case "toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

func encode(path string, cfg *model.Config) ([]byte, error) {
	switch format(path) {
	case "yaml":
		return yaml.Marshal(cfg)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(cfg, "", "  ")
	}
}

// applyEnv overrides cfg fields from MINDNOSCAPE_<JSON_TAG> variables.
func applyEnv(cfg *model.Config) error {
	strs := map[string]*string{
		"DATABASE_TYPE":         &cfg.DatabaseType,
		"DATABASE_DIR":          &cfg.DatabaseDir,
		"DATABASE_FILE":         &cfg.DatabaseFile,
		"DATABASE_URL":          &cfg.DatabaseURL,
		"LOG_FOLDER":            &cfg.LogFolder,
		"LOG_FILE":              &cfg.LogFile,
		"LOG_LEVEL":             &cfg.LogLevel,
		"HISTORY_FILE":          &cfg.HistoryFile,
		"EXPORT_DIR":            &cfg.ExportDir,
		"ID_FORMAT":             &cfg.IDFormat,
		"DEFAULT_USER":          &cfg.DefaultUser,
		"DEFAULT_USER_PASSWORD": &cfg.DefaultUserPassword,
	}
	for key, field := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*field = v
		}
	}

	bools := map[string]*bool{
		"USE_COLOR":           &cfg.UseColor,
		"DEFAULT_USER_ACTIVE": &cfg.DefaultUserActive,
	}
	for key, field := range bools {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s%s: %w", EnvPrefix, key, err)
		}
		*field = b
	}
	return nil
}
