package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings collects the runtime options shared by every focus command.
type Settings struct {
	DBPath         string
	Store          string
	Version        int
	BlockedTimeout time.Duration
	BusyTimeout    time.Duration
	MaxHandles     int64
	LogLevel       string
}

// Defaults used when neither flags, environment, nor .env files set a value.
const (
	DefaultStore          = "focus"
	DefaultBlockedTimeout = 5 * time.Second
	DefaultBusyTimeout    = 5 * time.Second
	DefaultMaxHandles     = 64
	DefaultLogLevel       = "warn"
)

// Init loads .env files and wires viper to the FOCUS_ environment prefix.
func Init() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("focus")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("db", "")
	viper.SetDefault("store", DefaultStore)
	viper.SetDefault("schema-version", 0)
	viper.SetDefault("blocked-timeout", DefaultBlockedTimeout)
	viper.SetDefault("busy-timeout", DefaultBusyTimeout)
	viper.SetDefault("max-handles", DefaultMaxHandles)
	viper.SetDefault("log-level", DefaultLogLevel)
}

// BindFlags binds a command's flags to viper so flags take precedence over the environment.
func BindFlags(flags *pflag.FlagSet) error {
	return viper.BindPFlags(flags)
}

// Load reads the current settings from viper.
func Load() (Settings, error) {
	s := Settings{
		DBPath:         viper.GetString("db"),
		Store:          strings.TrimSpace(viper.GetString("store")),
		Version:        viper.GetInt("schema-version"),
		BlockedTimeout: viper.GetDuration("blocked-timeout"),
		BusyTimeout:    viper.GetDuration("busy-timeout"),
		MaxHandles:     viper.GetInt64("max-handles"),
		LogLevel:       viper.GetString("log-level"),
	}
	if s.DBPath == "" {
		s.DBPath = GetDBPath()
	}
	if s.Store == "" {
		return Settings{}, fmt.Errorf("invalid store name: empty")
	}
	if s.Version < 0 {
		return Settings{}, fmt.Errorf("invalid schema version: %d", s.Version)
	}
	if s.BlockedTimeout <= 0 {
		return Settings{}, fmt.Errorf("invalid blocked timeout: %s", s.BlockedTimeout)
	}
	if s.MaxHandles <= 0 {
		return Settings{}, fmt.Errorf("invalid max handles: %d", s.MaxHandles)
	}
	return s, nil
}
