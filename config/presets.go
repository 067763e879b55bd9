package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const presetExt = ".yaml"

func presetPath(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("preset name is empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("preset name %q contains path separators", name)
	}
	return filepath.Join(dir, name+presetExt), nil
}

// SavePreset writes the configuration as a named preset under dir,
// creating the directory if needed.
func SavePreset(dir, name string, cfg *Config) error {
	path, err := presetPath(dir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating preset directory: %w", err)
	}
	return cfg.WriteYAML(path)
}

// LoadPreset reads a named preset, merged over the embedded defaults so
// presets saved by older versions pick up new fields.
func LoadPreset(dir, name string) (*Config, error) {
	path, err := presetPath(dir, name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return Load(path)
}

// DeletePreset removes a named preset.
func DeletePreset(dir, name string) error {
	path, err := presetPath(dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting preset %q: %w", name, err)
	}
	return nil
}

// ListPresets returns the sorted preset names under dir. A missing
// directory yields an empty list.
func ListPresets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading preset directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), presetExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), presetExt))
	}
	sort.Strings(names)
	return names, nil
}
