package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/cwygoda/yaydl/internal/domain"
)

// SettingsFile is the settings file name inside the config directory.
const SettingsFile = "settings.toml"

// AudioFormats lists the values yt-dlp accepts for --audio-format.
var AudioFormats = []string{"best", "aac", "alac", "flac", "m4a", "mp3", "opus", "vorbis", "wav"}

var formatRule = "oneof=" + strings.Join(AudioFormats, " ")

// DefaultSettings returns the settings written on first start.
func DefaultSettings() domain.Settings {
	home, _ := os.UserHomeDir()
	return domain.Settings{
		OutputDir:    filepath.Join(home, "Music"),
		OutputFormat: "mp3",
		DarkTheme:    true,
	}
}

// SettingsPatch carries the settings fields to change. Nil fields are kept.
type SettingsPatch struct {
	OutputDir    *string `json:"output_dir,omitempty"`
	OutputFormat *string `json:"output_format,omitempty"`
	DarkTheme    *bool   `json:"dark_theme,omitempty"`
}

// SettingsStore keeps user settings in memory and persists them to
// settings.toml. It implements domain.SettingsReader.
type SettingsStore struct {
	mu       sync.RWMutex
	path     string
	current  domain.Settings
	validate *validator.Validate
}

// OpenSettings loads settings.toml from dir, creating it with defaults if it
// does not exist. Empty fields in an existing file fall back to defaults.
func OpenSettings(dir string) (*SettingsStore, error) {
	s := &SettingsStore{
		path:     filepath.Join(dir, SettingsFile),
		validate: validator.New(),
	}

	defaults := DefaultSettings()
	var loaded domain.Settings
	_, err := toml.DecodeFile(s.path, &loaded)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.current = defaults
		if err := s.save(defaults); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if loaded.OutputDir == "" {
		loaded.OutputDir = defaults.OutputDir
	}
	if loaded.OutputFormat == "" {
		loaded.OutputFormat = defaults.OutputFormat
	}
	if err := s.check(loaded); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", s.path, err)
	}
	s.current = loaded
	return s, nil
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply validates and persists the fields set in p. Nothing changes if
// validation or the write fails.
func (s *SettingsStore) Apply(p SettingsPatch) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if p.OutputDir != nil {
		next.OutputDir = *p.OutputDir
	}
	if p.OutputFormat != nil {
		next.OutputFormat = *p.OutputFormat
	}
	if p.DarkTheme != nil {
		next.DarkTheme = *p.DarkTheme
	}

	if err := s.check(next); err != nil {
		return s.current, err
	}
	if err := s.save(next); err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}

// SetOutputDir changes the extraction output directory.
func (s *SettingsStore) SetOutputDir(dir string) error {
	_, err := s.Apply(SettingsPatch{OutputDir: &dir})
	return err
}

// SetOutputFormat changes the audio format.
func (s *SettingsStore) SetOutputFormat(format string) error {
	_, err := s.Apply(SettingsPatch{OutputFormat: &format})
	return err
}

// SetDarkTheme changes the theme flag.
func (s *SettingsStore) SetDarkTheme(dark bool) error {
	_, err := s.Apply(SettingsPatch{DarkTheme: &dark})
	return err
}

func (s *SettingsStore) check(v domain.Settings) error {
	if err := s.validate.Var(v.OutputDir, "required"); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	if err := s.validate.Var(v.OutputFormat, "required,"+formatRule); err != nil {
		return fmt.Errorf("output_format %q: %w", v.OutputFormat, err)
	}
	return nil
}

// save writes v to a temp file and renames it over the settings file.
func (s *SettingsStore) save(v domain.Settings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, SettingsFile+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
