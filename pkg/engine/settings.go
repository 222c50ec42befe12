package engine

import (
	"github.com/spf13/viper"
)

// KeyCleanOutputPath is the only setting the execution core reads itself.
// When true, the output path is cleaned at the start of every run.
const KeyCleanOutputPath = "CleanOutputPath"

// Settings is the opaque key-value configuration store shared between the
// engine and modules. Keys compare case-insensitively.
type Settings struct {
	v *viper.Viper
}

// NewSettings returns an empty settings store.
func NewSettings() *Settings {
	return &Settings{v: viper.New()}
}

// Set stores a value under key.
func (s *Settings) Set(key string, value any) {
	s.v.Set(key, value)
}

// Get returns the raw value stored under key, nil when absent.
func (s *Settings) Get(key string) any {
	return s.v.Get(key)
}

// GetString returns the value under key as a string.
func (s *Settings) GetString(key string) string {
	return s.v.GetString(key)
}

// GetBool returns the value under key as a bool, false when absent.
func (s *Settings) GetBool(key string) bool {
	return s.v.GetBool(key)
}

// IsSet reports whether key holds a value.
func (s *Settings) IsSet(key string) bool {
	return s.v.IsSet(key)
}

// CleanOutputPath reports whether the output path is cleaned before runs.
func (s *Settings) CleanOutputPath() bool {
	return s.v.GetBool(KeyCleanOutputPath)
}
