package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RejectSymlinkPath returns an error if any existing component of the path is
// a symlink. Missing components are allowed so a target can be created fresh.
func RejectSymlinkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	current := string(os.PathSeparator)
	if vol := filepath.VolumeName(abs); vol != "" {
		current = vol + string(os.PathSeparator)
	}
	rest := strings.TrimLeft(abs[len(filepath.VolumeName(abs)):], string(os.PathSeparator))
	for _, part := range strings.Split(rest, string(os.PathSeparator)) {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to access path: %w", err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("refusing to write through symlink: %s (at %s)", abs, current)
		}
	}
	return nil
}
