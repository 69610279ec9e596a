package ephemeris

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveCache writes the store as {id: [radius, samples]} JSON
func SaveCache(path string, store *Store) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to marshal ephemeris: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// LoadCache reads a cache written by SaveCache. Entries that break the
// ordering invariant are kept as empty series.
func LoadCache(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	store := NewStore()
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	return store, nil
}
