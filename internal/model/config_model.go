// Package model defines the data structures shared across the Mindnoscape layers.
package model

// Config represents the configuration settings for the application.
type Config struct {
	DatabaseType        string `json:"database_type" yaml:"database_type" toml:"database_type" validate:"required,oneof=sqlite3 sqlite postgres"`
	DatabaseDir         string `json:"database_dir" yaml:"database_dir" toml:"database_dir"`
	DatabaseFile        string `json:"database_file" yaml:"database_file" toml:"database_file" validate:"required_unless=DatabaseType postgres"`
	DatabaseURL         string `json:"database_url,omitempty" yaml:"database_url,omitempty" toml:"database_url,omitempty" validate:"required_if=DatabaseType postgres"`
	LogFolder           string `json:"log_folder" yaml:"log_folder" toml:"log_folder" validate:"required"`
	LogFile             string `json:"log_file" yaml:"log_file" toml:"log_file" validate:"required"`
	LogLevel            string `json:"log_level" yaml:"log_level" toml:"log_level" validate:"oneof=debug info warn error"`
	HistoryFile         string `json:"history_file" yaml:"history_file" toml:"history_file"`
	ExportDir           string `json:"export_dir" yaml:"export_dir" toml:"export_dir"`
	IDFormat            string `json:"id_format" yaml:"id_format" toml:"id_format" validate:"oneof=uuid ksuid"`
	UseColor            bool   `json:"use_color" yaml:"use_color" toml:"use_color"`
	DefaultUser         string `json:"default_user" yaml:"default_user" toml:"default_user" validate:"required"`
	DefaultUserActive   bool   `json:"default_user_active" yaml:"default_user_active" toml:"default_user_active"`
	DefaultUserPassword string `json:"default_user_password" yaml:"default_user_password" toml:"default_user_password"`
}
