package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all configuration for the application
type Config struct {
	// Completion service configuration
	Completion CompletionConfig `json:"completion"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// CompletionConfig holds completion service specific configuration
type CompletionConfig struct {
	// Base URL of the OpenAI-compatible chat completions API
	BaseURL string `json:"base_url"`

	// Model identifier
	Model string `json:"model"`

	// API key environment variable name
	APIKeyEnv string `json:"api_key_env"`

	// Maximum tokens per completion
	MaxTokens int `json:"max_tokens"`

	// Per-call timeout in seconds
	TimeoutSeconds int `json:"timeout_seconds"`

	// Maximum completion calls per minute
	RequestsPerMinute int `json:"requests_per_minute"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (sqlite3)
	Driver string `json:"driver"`

	// Database connection string for the team directory
	DSN string `json:"dsn"`

	// Path to the team seed data file
	SeedPath string `json:"seed_path"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Default starting followers
	StartingFollowers int `json:"starting_followers"`

	// Base XP awarded for a successful choice, before multipliers
	BaseXPReward int `json:"base_xp_reward"`

	// Path to the session state file
	SessionPath string `json:"session_path"`

	// Season mode uses the 52-slot week timeline instead of the 4-slot day
	SeasonMode bool `json:"season_mode"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level"`

	// Allowed CORS origins for the browser client
	AllowedOrigins []string `json:"allowed_origins"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Completion: CompletionConfig{
			BaseURL:           "https://api.deepseek.com",
			Model:             "deepseek-chat",
			APIKeyEnv:         "DEEPSEEK_API_KEY",
			MaxTokens:         1024,
			TimeoutSeconds:    12,
			RequestsPerMinute: 20,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite3",
			DSN:      "./data/teams.db",
			SeedPath: "./assets/data/teams.json",
		},
		Game: GameConfig{
			StartingFollowers: 100,
			BaseXPReward:      3,
			SessionPath:       "./data/session_state.json",
			SeasonMode:        false,
		},
		Server: ServerConfig{
			Port:           "8080",
			LogLevel:       "info",
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create default config file
		file, err := os.Create(path)
		if err != nil {
			return config, err
		}
		defer file.Close()

		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(config); err != nil {
			return config, err
		}

		return config, nil
	}

	// Read config file
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
