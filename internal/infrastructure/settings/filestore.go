package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FileStore is a JSON-backed settings store. It is the portable stand-in
// for the Windows registry: subtrees map to top-level objects, keys to
// numeric members, e.g.
//
//	{"personalize": {"AppsUseLightTheme": 1}, "dwm": {"AccentColor": 4282927692}}
//
// Paired with the fsnotify notification source it gives the full
// watch/diff/notify pipeline on any platform, and it is what the tests and
// the `shade set` command drive.
type FileStore struct {
	path string
}

// NewFileStore creates a store reading from the JSON document at path.
// The file does not have to exist yet; reads against a missing file report
// ErrValueNotFound.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// ReadValue implements port.SettingsBackend.
func (s *FileStore) ReadValue(subtree, key string) (uint64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s.%s: %w", subtree, key, ErrValueNotFound)
		}
		return 0, fmt.Errorf("read settings file %s: %w", s.path, err)
	}

	result := gjson.GetBytes(data, subtree+"."+key)
	if !result.Exists() {
		return 0, fmt.Errorf("%s.%s: %w", subtree, key, ErrValueNotFound)
	}
	if result.Type != gjson.Number {
		return 0, fmt.Errorf("%s.%s: expected number, got %s", subtree, key, result.Type)
	}
	return result.Uint(), nil
}

// WriteValue sets a single key, creating the file and parent directory on
// first use. Writing trips the file watch, so it doubles as the local way
// to exercise the change pipeline.
func (s *FileStore) WriteValue(subtree, key string, value uint64) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read settings file %s: %w", s.path, err)
		}
		if mkErr := os.MkdirAll(filepath.Dir(s.path), 0o755); mkErr != nil {
			return fmt.Errorf("create settings directory: %w", mkErr)
		}
		data = []byte("{}")
	}

	updated, err := sjson.SetBytes(data, subtree+"."+key, value)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", subtree, key, err)
	}

	if err := os.WriteFile(s.path, updated, 0o644); err != nil {
		return fmt.Errorf("write settings file %s: %w", s.path, err)
	}
	return nil
}
