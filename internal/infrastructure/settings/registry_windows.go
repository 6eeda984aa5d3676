//go:build windows

package settings

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// Registry paths behind the logical subtree names, under HKEY_CURRENT_USER.
// Exported so the watch package registers its notifications on the same
// keys this backend reads.
const (
	PersonalizeKeyPath = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`
	DWMKeyPath         = `Software\Microsoft\Windows\DWM`
)

// RegistryStore reads appearance values from HKEY_CURRENT_USER.
type RegistryStore struct{}

// NewRegistryStore creates the Windows registry backend.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{}
}

// ReadValue implements port.SettingsBackend. Each read opens and closes the
// key; the values are tiny and reads are infrequent, so no handle caching.
func (s *RegistryStore) ReadValue(subtree, key string) (uint64, error) {
	path, err := registryPath(subtree)
	if err != nil {
		return 0, err
	}

	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, fmt.Errorf("%s.%s: %w", subtree, key, ErrValueNotFound)
		}
		return 0, fmt.Errorf("open registry key %s: %w", path, err)
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(key)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, fmt.Errorf("%s.%s: %w", subtree, key, ErrValueNotFound)
		}
		return 0, fmt.Errorf("read registry value %s\\%s: %w", path, key, err)
	}
	return v, nil
}

func registryPath(subtree string) (string, error) {
	switch subtree {
	case SubtreePersonalize:
		return PersonalizeKeyPath, nil
	case SubtreeDWM:
		return DWMKeyPath, nil
	default:
		return "", fmt.Errorf("unknown settings subtree %q", subtree)
	}
}
