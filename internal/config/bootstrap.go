package config

import (
	"errors"
	"log/slog"
	"os"
)

// EnsureUserConfig writes the default configuration to path when no file
// exists yet. It reports whether a file was created.
func EnsureUserConfig(path string) (created bool, err error) {
	_, err = os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if err := SaveAtomic(path, Default()); err != nil {
		return false, err
	}
	slog.Info("wrote default config", "path", path)
	return true, nil
}
